package runtime

import (
	"buddychat/contract"
	"buddychat/domain"
	"context"
)

// DeliveryFilter hides, at read time, messages from a sender the reader blocked.
// It complements the send-time gate for messages that raced with a block.
type DeliveryFilter struct {
	gate   contract.BlockGate
	policy domain.BlockPolicy
}

func NewDeliveryFilter(gate contract.BlockGate, policy domain.BlockPolicy) DeliveryFilter {
	return DeliveryFilter{gate: gate, policy: policy}
}

// Hidden reports whether owner must not see message. The owner's own messages are never hidden.
func (f DeliveryFilter) Hidden(ctx context.Context, owner domain.UserID, message domain.Message) (bool, error) {
	if f.policy == domain.BlockPolicyNone || message.FromID == owner {
		return false, nil
	}
	since, blocked, err := f.gate.BlockedSince(ctx, owner, message.FromID)
	if err != nil || !blocked {
		return false, err
	}
	return f.policy.Hides(since, message.At), nil
}
