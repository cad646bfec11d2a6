package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/Shido75/Spectrasynth-CRM/internal/testutil"
)

func TestCreateInquiryAllocatesSequentialNumbers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	for _, want := range []string{"INQ1", "INQ2", "INQ3"} {
		inq, err := svc.Inquiry.Create(ctx, &service.CreateInquiryRequest{
			Email:    "buyer@acme.example",
			Products: []service.InquiryProductInput{{ProductName: "Ethanol"}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if inq.InquiryNumber != want {
			t.Errorf("inquiry number = %s, want %s", inq.InquiryNumber, want)
		}
		if inq.CurrentStage != entity.StageInquiryReceived {
			t.Errorf("stage = %s, want inquiry_received", inq.CurrentStage)
		}
	}
}

func TestCreateInquiryDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	inq, err := svc.Inquiry.Create(ctx, &service.CreateInquiryRequest{
		Email:    "buyer@acme.example",
		Products: []service.InquiryProductInput{{ProductName: "Ethanol"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inq.CustomerName != "Unknown" {
		t.Errorf("customer = %s, want Unknown", inq.CustomerName)
	}
	if inq.Products[0].CASNumber != "N/A" || inq.Products[0].ProductCode != "N/A" {
		t.Errorf("product defaults not applied: %+v", inq.Products[0])
	}
}

func TestCreateInquiryValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	cases := []*service.CreateInquiryRequest{
		{Products: []service.InquiryProductInput{{ProductName: "Ethanol"}}},
		{Email: "buyer@acme.example"},
		{Email: "buyer@acme.example", Products: []service.InquiryProductInput{{ProductName: "  "}}},
	}
	for i, req := range cases {
		if _, err := svc.Inquiry.Create(ctx, req); !errors.Is(err, service.ErrValidation) {
			t.Errorf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
}

func TestForwardStagePersistsAndConflictsOnRepeat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	inq, err := svc.Inquiry.Create(ctx, &service.CreateInquiryRequest{
		Email:    "buyer@acme.example",
		Products: []service.InquiryProductInput{{ProductName: "Ethanol"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := svc.Inquiry.ForwardStage(ctx, inq.InquiryNumber, service.SlotInquiry, "ravi")
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if out.InquiryStatus != entity.StageStatusForwarded || out.CurrentStage != entity.StageTechnicalReview {
		t.Errorf("forward not applied: %+v", out)
	}

	var stored entity.Inquiry
	if err := db.Where("inquiry_number = ?", inq.InquiryNumber).First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.InquiryBy != "ravi" || stored.InquiryUpdateDate == nil {
		t.Errorf("actor stamp not persisted: %+v", stored)
	}

	_, err = svc.Inquiry.ForwardStage(ctx, inq.InquiryNumber, service.SlotInquiry, "meera")
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("repeat forward = %v, want ErrConflict", err)
	}
}

func TestUpdateInquiryProduct(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	inq, err := svc.Inquiry.Create(ctx, &service.CreateInquiryRequest{
		Email:    "buyer@acme.example",
		Products: []service.InquiryProductInput{{ProductName: "Ethanol", QuantityReq: 10}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "Ethanol Absolute"
	qty := 25.0
	p, err := svc.Inquiry.UpdateProduct(ctx, inq.InquiryNumber, &service.UpdateProductRequest{
		ProductName: "Ethanol",
		NewName:     &newName,
		QuantityReq: &qty,
	})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if p.ProductName != newName || p.QuantityReq != 25 {
		t.Errorf("update not applied: %+v", p)
	}

	_, err = svc.Inquiry.UpdateProduct(ctx, inq.InquiryNumber, &service.UpdateProductRequest{ProductName: "Ethanol"})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("old name lookup = %v, want ErrNotFound", err)
	}
}

func TestDeleteInquiryProtectedByQuotations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	q := seedQuotation(t, svc, baseItems())

	err := svc.Inquiry.Delete(ctx, q.InquiryNumber)
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("delete with quotations = %v, want ErrConflict", err)
	}

	if err := svc.Quotation.Delete(ctx, q.QuotationNumber); err != nil {
		t.Fatalf("delete quotation: %v", err)
	}
	if err := svc.Inquiry.Delete(ctx, q.InquiryNumber); err != nil {
		t.Fatalf("delete inquiry: %v", err)
	}
	if _, err := svc.Inquiry.Get(ctx, q.InquiryNumber); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestListProcessedInquiries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	first, _ := svc.Inquiry.Create(ctx, &service.CreateInquiryRequest{
		Email:    "a@acme.example",
		Products: []service.InquiryProductInput{{ProductName: "Ethanol"}},
	})
	if _, err := svc.Inquiry.Create(ctx, &service.CreateInquiryRequest{
		Email:    "b@acme.example",
		Products: []service.InquiryProductInput{{ProductName: "Methanol"}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Inquiry.ForwardStage(ctx, first.InquiryNumber, service.SlotInquiry, "ops"); err != nil {
		t.Fatalf("forward: %v", err)
	}

	processed, err := svc.Inquiry.ListProcessed(ctx)
	if err != nil {
		t.Fatalf("list processed: %v", err)
	}
	if len(processed) != 1 || processed[0].InquiryNumber != first.InquiryNumber {
		t.Errorf("processed = %+v, want only %s", processed, first.InquiryNumber)
	}
}
