package recipes

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aristath/flipper/internal/clients/neu"
	"github.com/aristath/flipper/internal/domain"
)

// SelectRecipeBlock picks the first non-empty of the direct recipe, the
// slayer recipe and the first entry of the recipes list.
func SelectRecipeBlock(doc *neu.ItemDocument) (json.RawMessage, bool) {
	if doc == nil {
		return nil, false
	}
	if !isEmptyJSON(doc.Recipe) {
		return doc.Recipe, true
	}
	if !isEmptyJSON(doc.SlayerRecipe) {
		return doc.SlayerRecipe, true
	}
	if len(doc.Recipes) > 0 && !isEmptyJSON(doc.Recipes[0]) {
		return doc.Recipes[0], true
	}
	return nil, false
}

// ParseRecipeBlock reads slot values of the form "<id>[.qualifier]:<qty>".
// The block is either an object of slots or a list. Non-string values,
// values without a quantity and non-positive quantities are skipped.
// Repeated ingredients are summed.
func ParseRecipeBlock(block json.RawMessage) domain.Recipe {
	quantities := make(map[domain.ItemID]int)
	for _, value := range slotValues(block) {
		id, qty, ok := ParseSlot(value)
		if !ok {
			continue
		}
		quantities[id] += qty
	}
	return domain.NewRecipe(quantities)
}

// ParseSlot parses one slot value.
func ParseSlot(value string) (domain.ItemID, int, bool) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return "", 0, false
	}

	rawID, _, _ := strings.Cut(parts[0], ".")
	id := domain.ItemID(strings.TrimSpace(rawID))
	if id == "" {
		return "", 0, false
	}

	qty, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || qty <= 0 {
		return "", 0, false
	}
	return id, qty, true
}

func slotValues(block json.RawMessage) []string {
	var values []json.RawMessage

	var object map[string]json.RawMessage
	if err := json.Unmarshal(block, &object); err == nil {
		for _, v := range object {
			values = append(values, v)
		}
	} else if err := json.Unmarshal(block, &values); err != nil {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return true
	}
	return false
}
