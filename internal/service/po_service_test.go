package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/Shido75/Spectrasynth-CRM/internal/testutil"
)

func TestCreatePurchaseOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	q := seedQuotation(t, svc, baseItems())
	if _, err := svc.Quotation.SetReminder(ctx, q.QuotationNumber, &service.SetReminderRequest{ReminderDays: 7}); err != nil {
		t.Fatalf("arm reminder: %v", err)
	}

	po, err := svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ravi")
	if err != nil {
		t.Fatalf("create po: %v", err)
	}

	period := time.Now().Format("0601")
	if want := fmt.Sprintf("SS-PO-%s-001", period); po.PONumber != want {
		t.Errorf("po number = %s, want %s", po.PONumber, want)
	}
	if po.POStatus != entity.POStatusActive {
		t.Errorf("po status = %s, want active", po.POStatus)
	}
	if po.TotalAmount != q.TotalPrice {
		t.Errorf("amount = %v, want %v", po.TotalAmount, q.TotalPrice)
	}
	if po.CompanyName != "Acme Chem" {
		t.Errorf("company = %s, want customer name fallback", po.CompanyName)
	}

	// The quotation latches terminal and its reminder disarms.
	after, err := svc.Quotation.Get(ctx, q.QuotationNumber)
	if err != nil {
		t.Fatalf("reload quotation: %v", err)
	}
	if after.QuotationStatus != entity.QuotationStatusGeneratePO {
		t.Errorf("quotation status = %s, want generate_po", after.QuotationStatus)
	}
	if after.ReminderActive || after.NextReminderDate != nil {
		t.Errorf("reminder still armed: %+v", after)
	}

	// The inquiry's purchase-order slot forwards.
	inq, err := svc.Inquiry.Get(ctx, q.InquiryNumber)
	if err != nil {
		t.Fatalf("reload inquiry: %v", err)
	}
	if inq.PurchaseOrderStatus != entity.StageStatusForwarded {
		t.Errorf("inquiry PO slot = %s, want forwarded", inq.PurchaseOrderStatus)
	}
	if inq.POBy != "ravi" {
		t.Errorf("PO actor = %s, want ravi", inq.POBy)
	}
}

func TestCreatePurchaseOrderDuplicateConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	q := seedQuotation(t, svc, baseItems())
	if _, err := svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ops"); err != nil {
		t.Fatalf("first po: %v", err)
	}

	_, err := svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ops")
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("second po = %v, want ErrConflict", err)
	}
}

func TestCancelledPurchaseOrderFreesQuotation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	q := seedQuotation(t, svc, baseItems())
	first, err := svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ops")
	if err != nil {
		t.Fatalf("first po: %v", err)
	}
	if _, err := svc.PO.Cancel(ctx, first.PONumber); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second, err := svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ops")
	if err != nil {
		t.Fatalf("replacement po: %v", err)
	}
	if second.PONumber == first.PONumber {
		t.Errorf("replacement reused number %s", second.PONumber)
	}
}

func TestConfirmPurchaseOrderTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	q := seedQuotation(t, svc, baseItems())
	po, err := svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ops")
	if err != nil {
		t.Fatalf("create po: %v", err)
	}

	confirmed, err := svc.PO.Confirm(ctx, po.PONumber)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.POStatus != entity.POStatusConfirm {
		t.Errorf("status = %s, want confirm", confirmed.POStatus)
	}

	if _, err := svc.PO.Confirm(ctx, po.PONumber); !errors.Is(err, service.ErrConflict) {
		t.Errorf("double confirm = %v, want ErrConflict", err)
	}

	if _, err := svc.PO.Cancel(ctx, po.PONumber); err != nil {
		t.Fatalf("cancel confirmed: %v", err)
	}
	if _, err := svc.PO.Cancel(ctx, po.PONumber); !errors.Is(err, service.ErrConflict) {
		t.Errorf("double cancel = %v, want ErrConflict", err)
	}
}

func TestPurchaseOrderGuardsQuotationMutations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	q := seedQuotation(t, svc, baseItems())
	if _, err := svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ops"); err != nil {
		t.Fatalf("create po: %v", err)
	}

	if _, err := svc.Quotation.SetReminder(ctx, q.QuotationNumber, &service.SetReminderRequest{ReminderDays: 7}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("set reminder = %v, want ErrConflict", err)
	}
	if _, err := svc.Quotation.Finalise(ctx, q.QuotationNumber, "ops"); !errors.Is(err, service.ErrConflict) {
		t.Errorf("finalise = %v, want ErrConflict", err)
	}
	if err := svc.Quotation.Delete(ctx, q.QuotationNumber); !errors.Is(err, service.ErrConflict) {
		t.Errorf("delete = %v, want ErrConflict", err)
	}
}

func TestConcurrentPurchaseOrderCreates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	q := seedQuotation(t, svc, baseItems())

	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.PO.Create(ctx, &service.CreatePORequest{QuotationNumber: q.QuotationNumber}, "ops")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else if !errors.Is(err, service.ErrConflict) {
			t.Errorf("loser err = %v, want ErrConflict", err)
		}
	}
	if created != 1 {
		t.Errorf("created = %d purchase orders, want exactly 1", created)
	}

	var live int64
	db.Model(&entity.PurchaseOrder{}).
		Where("quotation_number = ? AND po_status <> ?", q.QuotationNumber, entity.POStatusCancel).
		Count(&live)
	if live != 1 {
		t.Errorf("live PO rows = %d, want 1", live)
	}
}

func TestCreatePurchaseOrderUnknownQuotation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)

	_, err := svc.PO.Create(context.Background(), &service.CreatePORequest{QuotationNumber: "SS-Q-0000-000"}, "ops")
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
