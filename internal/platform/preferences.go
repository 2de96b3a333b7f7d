package platform

import "sync"

// Preferences is the part of fyne.Preferences used for snapshot storage.
type Preferences interface {
	StringWithFallback(key, fallback string) string
	SetString(key, value string)
	RemoveValue(key string)
}

// PreferencesStore keeps snapshots in the desktop app preferences. Empty
// values are treated as absent.
type PreferencesStore struct {
	mu    sync.Mutex
	prefs Preferences
}

// NewPreferencesStore wraps prefs.
func NewPreferencesStore(prefs Preferences) *PreferencesStore {
	return &PreferencesStore{prefs: prefs}
}

func (store *PreferencesStore) Get(key string) (string, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	value := store.prefs.StringWithFallback(key, "")
	return value, value != "", nil
}

func (store *PreferencesStore) Set(key, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.prefs.SetString(key, value)
	return nil
}

func (store *PreferencesStore) Delete(key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.prefs.RemoveValue(key)
	return nil
}
