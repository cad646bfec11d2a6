package service

import (
	"encoding/json"
	"strconv"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
)

// FieldChange is one computed difference between two states of a line item.
// OldValue/NewValue are nil only on the NEW_PRODUCT / DELETED_PRODUCT
// sentinel rows; a present-but-empty value stays "" and never collapses to
// nil, so "cleared" and "never set" remain distinguishable.
type FieldChange struct {
	ProductID uint    `json:"product_id"`
	FieldName string  `json:"field_name"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
}

// normalizeNumber renders a float with no exponent and no trailing zeros, so
// 10, 10.0 and "10" all normalize to "10".
func normalizeNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// fieldValue renders one snapshot field to its canonical string form. All
// diff comparisons happen on these strings: one deterministic rule instead of
// runtime type coercion.
func fieldValue(item entity.SnapshotItem, field string) string {
	switch field {
	case "quantity":
		return strconv.Itoa(item.Quantity)
	case "price":
		return normalizeNumber(item.Price)
	case "lead_time":
		return item.LeadTime
	case "company_name":
		return item.CompanyName
	case "product_name":
		return item.ProductName
	case "cas_number":
		return item.CASNo
	case "hsn_number":
		return item.HSNNo
	}
	return ""
}

// serializeItem renders a full line for the NEW_PRODUCT / DELETED_PRODUCT
// sentinel rows.
func serializeItem(item entity.SnapshotItem) string {
	b, _ := json.Marshal(item)
	return string(b)
}

// diffItem compares one surviving line field by field and returns a change
// per differing field, in RevisionFields order.
func diffItem(prev, next entity.SnapshotItem) []FieldChange {
	var changes []FieldChange
	for _, field := range entity.RevisionFields {
		oldVal := fieldValue(prev, field)
		newVal := fieldValue(next, field)
		if oldVal != newVal {
			o, n := oldVal, newVal
			changes = append(changes, FieldChange{
				ProductID: next.ID,
				FieldName: field,
				OldValue:  &o,
				NewValue:  &n,
			})
		}
	}
	return changes
}

// diffItemSets compares the previous item state against an incoming set.
// Items present in prev but absent from next are deletions; items in next
// without a prior counterpart in prev are additions. Ordering follows the
// incoming set for updates/additions, then prev order for deletions.
func diffItemSets(prev, next []entity.SnapshotItem) []FieldChange {
	prevByID := make(map[uint]entity.SnapshotItem, len(prev))
	for _, p := range prev {
		prevByID[p.ID] = p
	}

	var changes []FieldChange
	seen := make(map[uint]bool, len(next))

	for _, item := range next {
		if p, ok := prevByID[item.ID]; ok {
			seen[item.ID] = true
			changes = append(changes, diffItem(p, item)...)
			continue
		}
		v := serializeItem(item)
		changes = append(changes, FieldChange{
			ProductID: item.ID,
			FieldName: entity.FieldNewProduct,
			NewValue:  &v,
		})
	}

	for _, p := range prev {
		if seen[p.ID] {
			continue
		}
		v := serializeItem(p)
		changes = append(changes, FieldChange{
			ProductID: p.ID,
			FieldName: entity.FieldDeletedProduct,
			OldValue:  &v,
		})
	}

	return changes
}

// snapshotFromProducts converts live line rows into snapshot items.
func snapshotFromProducts(products []entity.QuotationProduct) []entity.SnapshotItem {
	items := make([]entity.SnapshotItem, 0, len(products))
	for _, p := range products {
		items = append(items, entity.SnapshotItem{
			ID:          p.ID,
			ProductName: p.ProductName,
			CASNo:       p.CASNumber,
			HSNNo:       p.HSNNumber,
			Quantity:    p.Quantity,
			Price:       p.Price,
			LeadTime:    p.LeadTime,
			CompanyName: p.CompanyName,
		})
	}
	return items
}
