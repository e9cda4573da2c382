package services

import (
	"sort"
	"strings"

	"mealplan-server/models"
	"mealplan-server/storage"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NormalizeIngredient maps an ingredient line to its checklist key. Trim and
// lowercase only: "2 Eggs" and "2 eggs" are the same item, but no quantity or
// unit parsing is attempted.
func NormalizeIngredient(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}

// SplitIngredients breaks a meal's free-text ingredients into lines, trimming
// each and dropping empties. Tolerates CRLF input.
func SplitIngredients(text string) []string {
	if text == "" {
		return nil
	}
	raw := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

type ShoppingListEntry struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"` // first-seen raw text for this key
	Sources []string `json:"sources"`
	HasItem bool     `json:"hasItem"`
}

// BuildShoppingList aggregates the active days' ingredients into a
// deduplicated list. Pure function of its inputs: the same day snapshot and
// status map always produce the same entries in the same order.
func BuildShoppingList(days []DayView, status map[string]bool) []ShoppingListEntry {
	index := make(map[string]int)
	entries := []ShoppingListEntry{}

	for _, day := range days {
		if !day.IsActive {
			continue
		}
		for _, meal := range day.Meals {
			source := day.DayName + " — " + meal.Name
			for _, line := range SplitIngredients(meal.Ingredients) {
				key := NormalizeIngredient(line)
				if key == "" {
					continue
				}
				if i, ok := index[key]; ok {
					entries[i].Sources = append(entries[i].Sources, source)
					continue
				}
				index[key] = len(entries)
				entries = append(entries, ShoppingListEntry{
					Key:     key,
					Label:   line,
					Sources: []string{source},
					HasItem: status[key],
				})
			}
		}
	}

	collator := collate.New(language.English)
	sort.SliceStable(entries, func(i, j int) bool {
		if cmp := collator.CompareString(entries[i].Label, entries[j].Label); cmp != 0 {
			return cmp < 0
		}
		return entries[i].Key < entries[j].Key
	})

	return entries
}

// LoadIngredientStatus fetches the plan's "have it" checklist as a
// key -> bool map.
func LoadIngredientStatus(planID uint) (map[string]bool, error) {
	var rows []models.PlanIngredientStatus
	if err := storage.DB.Where("plan_id = ?", planID).Find(&rows).Error; err != nil {
		return nil, err
	}
	status := make(map[string]bool, len(rows))
	for _, row := range rows {
		status[row.Ingredient] = row.HasItem
	}
	return status, nil
}
