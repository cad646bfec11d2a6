package service

import (
	"encoding/json"
	"testing"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
)

func item(id uint, name string, qty int, price float64) entity.SnapshotItem {
	return entity.SnapshotItem{
		ID:          id,
		ProductName: name,
		CASNo:       "64-17-5",
		HSNNo:       "2207",
		Quantity:    qty,
		Price:       price,
		LeadTime:    "2 weeks",
		CompanyName: "Acme Chem",
	}
}

func TestDiffItemSingleFieldChange(t *testing.T) {
	prev := item(1, "Ethanol", 10, 250)
	next := item(1, "Ethanol", 15, 250)

	changes := diffItem(prev, next)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(changes), changes)
	}

	ch := changes[0]
	if ch.ProductID != 1 || ch.FieldName != "quantity" {
		t.Errorf("unexpected change row: %+v", ch)
	}
	if ch.OldValue == nil || *ch.OldValue != "10" {
		t.Errorf("old value = %v, want 10", ch.OldValue)
	}
	if ch.NewValue == nil || *ch.NewValue != "15" {
		t.Errorf("new value = %v, want 15", ch.NewValue)
	}
}

func TestDiffItemMultipleFieldsFollowFieldOrder(t *testing.T) {
	prev := item(1, "Ethanol", 10, 250)
	next := item(1, "Ethanol Absolute", 15, 300)

	changes := diffItem(prev, next)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(changes))
	}
	want := []string{"quantity", "price", "product_name"}
	for i, field := range want {
		if changes[i].FieldName != field {
			t.Errorf("change %d = %s, want %s", i, changes[i].FieldName, field)
		}
	}
}

func TestDiffItemIdenticalProducesNoChanges(t *testing.T) {
	prev := item(1, "Ethanol", 10, 250)
	if changes := diffItem(prev, prev); len(changes) != 0 {
		t.Errorf("expected no changes, got %+v", changes)
	}
}

func TestNormalizeNumberDropsTrailingZeros(t *testing.T) {
	cases := map[float64]string{
		10:     "10",
		10.5:   "10.5",
		0.25:   "0.25",
		1250.4: "1250.4",
	}
	for in, want := range cases {
		if got := normalizeNumber(in); got != want {
			t.Errorf("normalizeNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDiffItemPriceNormalizedComparison(t *testing.T) {
	prev := item(1, "Ethanol", 10, 250)
	next := item(1, "Ethanol", 10, 250.0)
	if changes := diffItem(prev, next); len(changes) != 0 {
		t.Errorf("numerically equal prices must not diff: %+v", changes)
	}
}

func TestDiffItemClearedFieldIsAChange(t *testing.T) {
	prev := item(1, "Ethanol", 10, 250)
	next := prev
	next.LeadTime = ""

	changes := diffItem(prev, next)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].NewValue == nil {
		t.Fatal("cleared value must stay empty string, not nil")
	}
	if *changes[0].NewValue != "" {
		t.Errorf("new value = %q, want empty", *changes[0].NewValue)
	}
}

func TestDiffItemSetsAddition(t *testing.T) {
	prev := []entity.SnapshotItem{item(1, "Ethanol", 10, 250)}
	next := []entity.SnapshotItem{item(1, "Ethanol", 10, 250), item(2, "Methanol", 5, 180)}

	changes := diffItemSets(prev, next)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(changes), changes)
	}

	ch := changes[0]
	if ch.FieldName != entity.FieldNewProduct || ch.ProductID != 2 {
		t.Errorf("unexpected sentinel row: %+v", ch)
	}
	if ch.OldValue != nil {
		t.Error("addition must carry nil old value")
	}
	if ch.NewValue == nil {
		t.Fatal("addition must carry the serialized item")
	}
	var decoded entity.SnapshotItem
	if err := json.Unmarshal([]byte(*ch.NewValue), &decoded); err != nil {
		t.Fatalf("new value is not valid JSON: %v", err)
	}
	if decoded.ProductName != "Methanol" {
		t.Errorf("decoded product = %s, want Methanol", decoded.ProductName)
	}
}

func TestDiffItemSetsDeletion(t *testing.T) {
	prev := []entity.SnapshotItem{item(1, "Ethanol", 10, 250), item(2, "Methanol", 5, 180)}
	next := []entity.SnapshotItem{item(1, "Ethanol", 10, 250)}

	changes := diffItemSets(prev, next)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	ch := changes[0]
	if ch.FieldName != entity.FieldDeletedProduct || ch.ProductID != 2 {
		t.Errorf("unexpected sentinel row: %+v", ch)
	}
	if ch.NewValue != nil {
		t.Error("deletion must carry nil new value")
	}
	if ch.OldValue == nil {
		t.Fatal("deletion must carry the serialized item")
	}
}

func TestDiffItemSetsOrderingUpdatesThenDeletions(t *testing.T) {
	prev := []entity.SnapshotItem{
		item(1, "Ethanol", 10, 250),
		item(2, "Methanol", 5, 180),
	}
	next := []entity.SnapshotItem{
		item(3, "Acetone", 2, 90),
		item(1, "Ethanol", 12, 250),
	}

	changes := diffItemSets(prev, next)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d: %+v", len(changes), changes)
	}
	// Incoming order first (addition, then update), deletions last.
	if changes[0].FieldName != entity.FieldNewProduct || changes[0].ProductID != 3 {
		t.Errorf("change 0 = %+v, want NEW_PRODUCT for 3", changes[0])
	}
	if changes[1].FieldName != "quantity" || changes[1].ProductID != 1 {
		t.Errorf("change 1 = %+v, want quantity for 1", changes[1])
	}
	if changes[2].FieldName != entity.FieldDeletedProduct || changes[2].ProductID != 2 {
		t.Errorf("change 2 = %+v, want DELETED_PRODUCT for 2", changes[2])
	}
}

func TestSnapshotFromProducts(t *testing.T) {
	products := []entity.QuotationProduct{
		{
			ID:          7,
			ProductName: "Toluene",
			CASNumber:   "108-88-3",
			HSNNumber:   "2902",
			CompanyName: "Acme Chem",
			Quantity:    3,
			Price:       120.5,
			LeadTime:    "10 days",
		},
	}
	items := snapshotFromProducts(products)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.ID != 7 || got.CASNo != "108-88-3" || got.Price != 120.5 {
		t.Errorf("unexpected snapshot item: %+v", got)
	}
}
