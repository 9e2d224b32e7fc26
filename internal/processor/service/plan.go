package service

import (
	"fmt"
	"sort"

	challengedomain "github.com/arenaworks/prizepay/internal/challenge/domain"
	paymentdomain "github.com/arenaworks/prizepay/internal/payment/domain"
	"go.uber.org/zap"
)

// buildPlan derives the ordered payment intents for one completed challenge:
// placement winners first, then checkpoint winners, then the copilot. A bad
// group is logged and skipped without blocking the others.
func (s *Service) buildPlan(event *challengedomain.ChallengeEvent, creatorID, copilotID int64) []paymentdomain.PaymentIntent {
	log := s.log.With(zap.String("challenge_id", event.ID))
	if event.ID == "" {
		log.Error("challenge event has no v5 id, no payments generated")
		return nil
	}
	if event.LegacyID == nil {
		log.Warn("challenge event has no legacy id")
	}

	policy := s.payout.Get()
	base := paymentdomain.PaymentIntent{
		ProjectID:               event.LegacyID,
		ChallengeID:             event.ID,
		StatusID:                policy.PaymentStatusID,
		ModificationRationaleID: policy.ModificationRationaleID,
		MethodID:                policy.PaymentMethodID,
		CharityInd:              policy.CharityInd,
		InstallmentNumber:       policy.InstallmentNumber,
		CreateUser:              creatorID,
	}

	intents := make([]paymentdomain.PaymentIntent, 0, len(event.Winners)+1)
	intents = append(intents, rankedGroup(
		log, "placement",
		event.PrizeSetByType(challengedomain.PrizeSetPlacement),
		placementWinners(event.Winners),
		base, policy.WinnerPaymentTypeID,
		func(place int) string {
			return fmt.Sprintf("Payment - %s - %d Place", event.Name, place)
		},
	)...)
	intents = append(intents, rankedGroup(
		log, "checkpoint",
		event.PrizeSetByType(challengedomain.PrizeSetCheckpoint),
		checkpointWinners(event.Winners),
		base, policy.CheckpointPaymentTypeID,
		func(place int) string {
			return fmt.Sprintf("Checkpoint payment - %s - %d Place", event.Name, place)
		},
	)...)
	if intent, ok := copilotIntent(log, event, base, policy.CopilotPaymentTypeID, copilotID); ok {
		intents = append(intents, intent)
	}
	return intents
}

// rankedGroup pairs prizes with winners positionally. The pairing is
// exact-count-or-skip: a mismatch writes nothing rather than guessing a
// partial payout.
func rankedGroup(
	log *zap.Logger,
	group string,
	set *challengedomain.PrizeSet,
	winners []challengedomain.Winner,
	base paymentdomain.PaymentIntent,
	typeID int64,
	describe func(place int) string,
) []paymentdomain.PaymentIntent {
	if set == nil || len(set.Prizes) == 0 {
		log.Warn("no prizes for group, skipping", zap.String("group", group))
		return nil
	}
	if len(winners) == 0 {
		log.Warn("no winners for group, skipping", zap.String("group", group))
		return nil
	}
	if len(set.Prizes) != len(winners) {
		log.Error("prize and winner counts differ, skipping group",
			zap.String("group", group),
			zap.Int("prizes", len(set.Prizes)),
			zap.Int("winners", len(winners)),
		)
		return nil
	}

	ranked := append([]challengedomain.Winner(nil), winners...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Placement < ranked[j].Placement
	})

	intents := make([]paymentdomain.PaymentIntent, 0, len(ranked))
	for i, winner := range ranked {
		intent := base
		intent.MemberID = winner.UserID
		intent.Amount = set.Prizes[i].Value
		intent.TypeID = typeID
		intent.Description = describe(i + 1)
		intents = append(intents, intent)
	}
	return intents
}

// copilotIntent takes only the first copilot prize: a copilot payment is a
// flat single amount, not per-rank.
func copilotIntent(
	log *zap.Logger,
	event *challengedomain.ChallengeEvent,
	base paymentdomain.PaymentIntent,
	typeID int64,
	copilotID int64,
) (paymentdomain.PaymentIntent, bool) {
	set := event.PrizeSetByType(challengedomain.PrizeSetCopilot)
	if set == nil || len(set.Prizes) == 0 {
		log.Warn("no copilot prize on challenge, skipping")
		return paymentdomain.PaymentIntent{}, false
	}
	if copilotID <= 0 {
		log.Warn("no copilot member resolved, skipping copilot payment")
		return paymentdomain.PaymentIntent{}, false
	}

	description := set.Description
	if description == "" {
		description = fmt.Sprintf("%s - Copilot", event.Name)
	}

	intent := base
	intent.MemberID = copilotID
	intent.Amount = set.Prizes[0].Value
	intent.TypeID = typeID
	intent.Description = description
	return intent, true
}

// placementWinners keeps winners tagged placement, plus untagged winners from
// legacy events that predate the type field.
func placementWinners(winners []challengedomain.Winner) []challengedomain.Winner {
	out := make([]challengedomain.Winner, 0, len(winners))
	for _, w := range winners {
		if w.Type == "" || w.Type == challengedomain.WinnerTypePlacement {
			out = append(out, w)
		}
	}
	return out
}

func checkpointWinners(winners []challengedomain.Winner) []challengedomain.Winner {
	out := make([]challengedomain.Winner, 0, len(winners))
	for _, w := range winners {
		if w.Type == challengedomain.WinnerTypeCheckpoint {
			out = append(out, w)
		}
	}
	return out
}
