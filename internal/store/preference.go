package store

import (
	"database/sql"
	"fmt"

	"github.com/mrequena/cesta/internal/model"
)

// PreferenceStore persists per-user display-language preferences.
type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// GetLanguage returns the user's display language. An absent or corrupt
// value falls back to Spanish rather than failing.
func (s *PreferenceStore) GetLanguage(userID int64) (model.Language, error) {
	var lang string
	err := s.db.QueryRow(
		`SELECT language FROM preferences WHERE user_id = ?`, userID,
	).Scan(&lang)
	if err == sql.ErrNoRows {
		return model.LangES, nil
	}
	if err != nil {
		return model.LangES, fmt.Errorf("get language: %w", err)
	}
	if !model.ValidLanguage(lang) {
		return model.LangES, nil
	}
	return model.Language(lang), nil
}

// SetLanguage stores the user's display language.
func (s *PreferenceStore) SetLanguage(userID int64, lang model.Language) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (user_id, language, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id) DO UPDATE SET language = excluded.language, updated_at = CURRENT_TIMESTAMP`,
		userID, string(lang),
	)
	if err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return nil
}
