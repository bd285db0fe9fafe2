// Package citylist persists the user's tracked cities.
package citylist

import (
	"errors"
	"strings"
)

// PreferenceKey is the key the city list is stored under
const PreferenceKey = "SavedCities"

// DefaultCities is the list used before the user changes anything
var DefaultCities = []string{"New York", "London", "Tokyo"}

var (
	ErrEmptyName = errors.New("city name is empty")
	ErrDuplicate = errors.New("city already tracked")
	ErrNotFound  = errors.New("city not tracked")
)

// Store is an ordered set of city display names, unique ignoring case
type Store interface {
	// List returns the tracked cities in insertion order
	List() ([]string, error)
	// Add appends a city and returns the updated list
	Add(name string) ([]string, error)
	// Remove deletes a city by name, ignoring case, and returns the updated list
	Remove(name string) ([]string, error)
	// RemoveAt deletes the city at index and returns the updated list
	RemoveAt(index int) ([]string, error)
	Close() error
}

// normalize trims a user supplied name
func normalize(name string) string {
	return strings.TrimSpace(name)
}

// indexOf finds name in cities ignoring case, or returns -1
func indexOf(cities []string, name string) int {
	for i, city := range cities {
		if strings.EqualFold(city, name) {
			return i
		}
	}
	return -1
}

// appendCity returns cities with name added, enforcing the list rules
func appendCity(cities []string, name string) ([]string, error) {
	name = normalize(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if indexOf(cities, name) >= 0 {
		return nil, ErrDuplicate
	}
	return append(append([]string(nil), cities...), name), nil
}

// removeIndex returns cities without the element at index
func removeIndex(cities []string, index int) ([]string, error) {
	if index < 0 || index >= len(cities) {
		return nil, ErrNotFound
	}
	out := make([]string, 0, len(cities)-1)
	out = append(out, cities[:index]...)
	return append(out, cities[index+1:]...), nil
}
