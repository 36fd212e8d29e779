package domain

import "fmt"

// PeriodCatalog maps between 1-based period ordinals (the UI slider
// positions) and "Mon, YYYY" period labels. Ordinals are dense and assigned
// in first-encounter order, which equals chronological order since the
// source rows arrive date-sorted.
type PeriodCatalog struct {
	labels   []string
	ordinals map[string]int
}

// NewPeriodCatalog scans the normalized set once and collects distinct
// period keys in encounter order.
func NewPeriodCatalog(observations []NormalizedObservation) *PeriodCatalog {
	c := &PeriodCatalog{ordinals: make(map[string]int)}
	for i := range observations {
		key := observations[i].PeriodKey
		if _, ok := c.ordinals[key]; ok {
			continue
		}
		c.labels = append(c.labels, key)
		c.ordinals[key] = len(c.labels)
	}
	return c
}

// LabelFor returns the period label at a 1-based ordinal.
func (c *PeriodCatalog) LabelFor(ordinal int) (string, error) {
	if ordinal < 1 || ordinal > len(c.labels) {
		return "", fmt.Errorf("period ordinal %d: %w", ordinal, ErrNotFound)
	}
	return c.labels[ordinal-1], nil
}

// OrdinalFor returns the 1-based ordinal of a period label.
func (c *PeriodCatalog) OrdinalFor(label string) (int, error) {
	ord, ok := c.ordinals[label]
	if !ok {
		return 0, fmt.Errorf("period %q: %w", label, ErrNotFound)
	}
	return ord, nil
}

// Latest returns the highest ordinal, or 0 for an empty catalog.
func (c *PeriodCatalog) Latest() int {
	return len(c.labels)
}

// Labels returns all period labels in ordinal order.
func (c *PeriodCatalog) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Len reports the number of periods.
func (c *PeriodCatalog) Len() int {
	return len(c.labels)
}
