package main

import (
	"fmt"
	"strings"

	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// matchThreshold is the lowest fuzzy.Ratio accepted for a name lookup.
const matchThreshold = 60

// bestMatch returns the index of the candidate matching query: an exact id,
// then a case-insensitive name, then the single best fuzzy score.
func bestMatch(query string, ids, names []string) (int, error) {
	for i, id := range ids {
		if id == query {
			return i, nil
		}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for i, name := range names {
		if strings.ToLower(name) == q {
			return i, nil
		}
	}

	best, bestScore, tie := -1, 0, false
	for i, name := range names {
		score := fuzzy.Ratio(q, strings.ToLower(name))
		switch {
		case score > bestScore:
			best, bestScore, tie = i, score, false
		case score == bestScore:
			tie = true
		}
	}
	if best < 0 || bestScore < matchThreshold {
		return -1, fmt.Errorf("nothing matches %q", query)
	}
	if tie {
		return -1, fmt.Errorf("%q is ambiguous", query)
	}
	return best, nil
}

func resolveList(s *streak.AppState, query string) (streak.List, error) {
	ids := make([]string, len(s.Lists))
	names := make([]string, len(s.Lists))
	for i, l := range s.Lists {
		ids[i], names[i] = l.ID, l.Title
	}
	i, err := bestMatch(query, ids, names)
	if err != nil {
		return streak.List{}, fmt.Errorf("list: %w", err)
	}
	return s.Lists[i], nil
}

func resolveTask(l streak.List, query string) (streak.Task, error) {
	ids := make([]string, len(l.Tasks))
	names := make([]string, len(l.Tasks))
	for i, t := range l.Tasks {
		ids[i], names[i] = t.ID, t.Text
	}
	i, err := bestMatch(query, ids, names)
	if err != nil {
		return streak.Task{}, fmt.Errorf("task in %s: %w", l.Title, err)
	}
	return l.Tasks[i], nil
}
