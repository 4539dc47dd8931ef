package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/ports"
)

// reasonRule couples a reason code's precondition with its side effect. The
// side effect runs in the same transaction as the log insert, so a log never
// exists without its derived offer and vice versa.
type reasonRule struct {
	validate func(req ports.ActivityRequest) error
	apply    func(ctx context.Context, tx ports.Store, log *entities.ActivityLog, req ports.ActivityRequest) error
}

var reasonRules = map[entities.Reason]reasonRule{
	entities.ReasonTeklifVerildi: {
		validate: requireOfferFields,
		apply:    createOfferFor(entities.OfferOur),
	},
	entities.ReasonKarsiTeklif: {
		validate: requireOfferFields,
		apply:    createOfferFor(entities.OfferCounter),
	},
	entities.ReasonTeklifKabul: {
		apply: setAllOffers(entities.OfferAccepted),
	},
	entities.ReasonTeklifRed: {
		apply: setAllOffers(entities.OfferRejected),
	},
	entities.ReasonTekrarAranacak: {
		validate: func(req ports.ActivityRequest) error {
			if req.FollowUpDate == nil {
				return entities.NewValidation("follow-up date is required for this reason", "follow_up_date")
			}
			return nil
		},
	},
	entities.ReasonYetkiliyeUlasildi:         {},
	entities.ReasonYetkiliyeUlasilamadi:      {},
	entities.ReasonIsletmeyeUlasilamadi:      {},
	entities.ReasonIsletmeCalismakIstemiyor:  {},
	entities.ReasonGrupanyaCalismakIstemiyor: {},
}

// requireOfferFields checks that all three pricing fields are present. The
// error names every missing field so the caller can render a precise message.
func requireOfferFields(req ports.ActivityRequest) error {
	var missing []string
	if req.AdFee == nil {
		missing = append(missing, "ad_fee")
	}
	if req.Commission == nil {
		missing = append(missing, "commission")
	}
	if req.Joker == nil {
		missing = append(missing, "joker")
	}
	if len(missing) > 0 {
		return entities.NewValidation("offer fields are required for this reason", missing...)
	}
	return nil
}

func createOfferFor(offerType entities.OfferType) func(context.Context, ports.Store, *entities.ActivityLog, ports.ActivityRequest) error {
	return func(ctx context.Context, tx ports.Store, log *entities.ActivityLog, req ports.ActivityRequest) error {
		logID := log.ID
		offer := &entities.Offer{
			ID:            uuid.New(),
			TaskID:        log.TaskID,
			ActivityLogID: &logID,
			AdFee:         *req.AdFee,
			Commission:    *req.Commission,
			Joker:         *req.Joker,
			Type:          offerType,
			Status:        entities.OfferPending,
			CreatedByID:   log.AuthorID,
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.Offers().Create(ctx, offer); err != nil {
			return fmt.Errorf("failed to create derived offer: %w", err)
		}
		return nil
	}
}

func setAllOffers(status entities.OfferStatus) func(context.Context, ports.Store, *entities.ActivityLog, ports.ActivityRequest) error {
	return func(ctx context.Context, tx ports.Store, log *entities.ActivityLog, req ports.ActivityRequest) error {
		if err := tx.Offers().UpdateStatusByTask(ctx, log.TaskID, status); err != nil {
			return fmt.Errorf("failed to update offers: %w", err)
		}
		return nil
	}
}
