package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/habitchart/internal/series"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Preferences reads the settings table. Missing or unparsable values fall
// back to DefaultPreferences.
func (s *Store) Preferences() (Preferences, error) {
	all, err := s.GetAllSettings()
	if err != nil {
		return DefaultPreferences(), err
	}

	p := DefaultPreferences()
	for _, st := range all {
		v := strings.TrimSpace(st.Value)
		switch st.Key {
		case KeyBPHabit:
			if v != "" {
				p.BPHabit = v
			}
		case KeyMarkerValue:
			if f, err := strconv.ParseFloat(v, 64); err == nil && series.CheckMarkerValue(f) == nil {
				p.MarkerValue = f
			}
		case KeyWatchFile:
			if b, err := strconv.ParseBool(v); err == nil {
				p.WatchFile = b
			}
		case KeyChartHeight:
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				p.ChartHeight = n
			}
		}
	}
	return p, nil
}

func (s *Store) SavePreferences(p Preferences) error {
	if err := series.CheckMarkerValue(p.MarkerValue); err != nil {
		return err
	}
	values := map[string]string{
		KeyBPHabit:     p.BPHabit,
		KeyMarkerValue: strconv.FormatFloat(p.MarkerValue, 'f', -1, 64),
		KeyWatchFile:   strconv.FormatBool(p.WatchFile),
		KeyChartHeight: strconv.Itoa(p.ChartHeight),
	}
	for k, v := range values {
		if err := s.SetSetting(k, v); err != nil {
			return fmt.Errorf("save setting %q: %w", k, err)
		}
	}
	return nil
}
