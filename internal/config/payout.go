package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PayoutPolicy carries the fixed administrative fields stamped on every
// payment, plus the legacy type/status codes the downstream store expects.
type PayoutPolicy struct {
	PaymentStatusID         int64 `mapstructure:"paymentStatusId"`
	ModificationRationaleID int64 `mapstructure:"modificationRationaleId"`
	PaymentMethodID         int64 `mapstructure:"paymentMethodId"`
	CharityInd              int   `mapstructure:"charityInd"`
	InstallmentNumber       int   `mapstructure:"installmentNumber"`
	StatusReasonID          int64 `mapstructure:"statusReasonId"`

	WinnerPaymentTypeID     int64 `mapstructure:"winnerPaymentTypeId"`
	CheckpointPaymentTypeID int64 `mapstructure:"checkpointPaymentTypeId"`
	CopilotPaymentTypeID    int64 `mapstructure:"copilotPaymentTypeId"`

	DueDateOffsetDays int `mapstructure:"dueDateOffsetDays"`
}

func DefaultPayoutPolicy() PayoutPolicy {
	return PayoutPolicy{
		PaymentStatusID:         55, // on hold
		ModificationRationaleID: 1,
		PaymentMethodID:         1,
		CharityInd:              0,
		InstallmentNumber:       1,
		StatusReasonID:          500,
		WinnerPaymentTypeID:     72,
		CheckpointPaymentTypeID: 64,
		CopilotPaymentTypeID:    74,
		DueDateOffsetDays:       15,
	}
}

// PayoutPolicyHolder exposes the current policy and hot-reloads it when the
// backing file changes.
type PayoutPolicyHolder struct {
	current atomic.Value // holds PayoutPolicy
}

func NewPayoutPolicyHolder() (*PayoutPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("payout")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/prizepay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRIZEPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPayoutPolicy()
	v.SetDefault("payout.paymentStatusId", defaults.PaymentStatusID)
	v.SetDefault("payout.modificationRationaleId", defaults.ModificationRationaleID)
	v.SetDefault("payout.paymentMethodId", defaults.PaymentMethodID)
	v.SetDefault("payout.charityInd", defaults.CharityInd)
	v.SetDefault("payout.installmentNumber", defaults.InstallmentNumber)
	v.SetDefault("payout.statusReasonId", defaults.StatusReasonID)
	v.SetDefault("payout.winnerPaymentTypeId", defaults.WinnerPaymentTypeID)
	v.SetDefault("payout.checkpointPaymentTypeId", defaults.CheckpointPaymentTypeID)
	v.SetDefault("payout.copilotPaymentTypeId", defaults.CopilotPaymentTypeID)
	v.SetDefault("payout.dueDateOffsetDays", defaults.DueDateOffsetDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy PayoutPolicy
	if err := v.UnmarshalKey("payout", &policy); err != nil {
		return nil, err
	}
	if err := validatePayoutPolicy(policy); err != nil {
		return nil, err
	}

	holder := &PayoutPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PayoutPolicy
		if err := v.UnmarshalKey("payout", &updated); err != nil {
			log.Printf("[payout-config] reload failed: %v", err)
			return
		}
		if err := validatePayoutPolicy(updated); err != nil {
			log.Printf("[payout-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[payout-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PayoutPolicyHolder) Get() PayoutPolicy {
	return h.current.Load().(PayoutPolicy)
}

// NewStaticPayoutPolicyHolder wraps a fixed policy, for tests.
func NewStaticPayoutPolicyHolder(policy PayoutPolicy) *PayoutPolicyHolder {
	holder := &PayoutPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func validatePayoutPolicy(policy PayoutPolicy) error {
	if policy.PaymentStatusID <= 0 {
		return errors.New("payout.paymentStatusId must be positive")
	}
	if policy.WinnerPaymentTypeID <= 0 || policy.CheckpointPaymentTypeID <= 0 || policy.CopilotPaymentTypeID <= 0 {
		return errors.New("payout payment type ids must be positive")
	}
	if policy.DueDateOffsetDays <= 0 {
		return errors.New("payout.dueDateOffsetDays must be positive")
	}
	return nil
}
