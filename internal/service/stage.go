package service

import (
	"fmt"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
)

// StageSlot names one step of the inquiry pipeline for stage operations.
type StageSlot string

const (
	SlotInquiry       StageSlot = "inquiry"
	SlotTechnical     StageSlot = "technical"
	SlotManagement    StageSlot = "management"
	SlotPurchaseOrder StageSlot = "purchase_order"
)

// nextStage maps a forwarded slot to the stage the inquiry enters.
// The purchase-order slot is terminal.
var nextStage = map[StageSlot]string{
	SlotInquiry:    entity.StageTechnicalReview,
	SlotTechnical:  entity.StageManagementReview,
	SlotManagement: entity.StagePurchaseOrder,
}

// stageRank orders the pipeline so current_stage only ever moves forward,
// even when slots latch out of order.
var stageRank = map[string]int{
	entity.StageInquiryReceived:  0,
	entity.StageTechnicalReview:  1,
	entity.StageManagementReview: 2,
	entity.StagePurchaseOrder:    3,
}

// advanceStage forwards one stage slot on the inquiry in memory. It fails
// with ErrConflict when the slot is already forwarded: forwarding is a
// one-way latch with no rollback. The caller persists the mutation.
func advanceStage(inq *entity.Inquiry, slot StageSlot, actor string, now time.Time) error {
	status, _ := slotFields(inq, slot)
	if *status == entity.StageStatusForwarded {
		return fmt.Errorf("%w: %s stage already forwarded for %s", ErrConflict, slot, inq.InquiryNumber)
	}

	*status = entity.StageStatusForwarded
	switch slot {
	case SlotInquiry:
		inq.InquiryUpdateDate = &now
		inq.InquiryBy = actor
	case SlotTechnical:
		inq.TechnicalUpdateDate = &now
		inq.TechnicalQuotationBy = actor
	case SlotManagement:
		inq.ManagementUpdateDate = &now
		inq.MarketingQuotationBy = actor
	case SlotPurchaseOrder:
		inq.POUpdateDate = &now
		inq.POBy = actor
	}

	if stage, ok := nextStage[slot]; ok && stageRank[stage] > stageRank[inq.CurrentStage] {
		inq.CurrentStage = stage
	}
	return nil
}

// slotFields returns the status pointer and its forwarded flag for one slot.
func slotFields(inq *entity.Inquiry, slot StageSlot) (*string, bool) {
	switch slot {
	case SlotInquiry:
		return &inq.InquiryStatus, inq.InquiryStatus == entity.StageStatusForwarded
	case SlotTechnical:
		return &inq.TechnicalStatus, inq.TechnicalStatus == entity.StageStatusForwarded
	case SlotManagement:
		return &inq.ManagementStatus, inq.ManagementStatus == entity.StageStatusForwarded
	default:
		return &inq.PurchaseOrderStatus, inq.PurchaseOrderStatus == entity.StageStatusForwarded
	}
}
