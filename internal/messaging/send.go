package messaging

import (
	"context"

	"github.com/jmoralesv/optica-crm/pkg/logging"
)

// SendResult reports the outcome of one outbound send attempt.
type SendResult struct {
	MessageID         string
	ProviderMessageID string
	Status            string
}

// SendAndLog sends one text through the delivery channel and records the
// attempt in the message log. A failed send is logged with status=failed so it
// stays visible to operators instead of disappearing; the send error is still
// returned to the caller. Takes all collaborators as parameters so it composes
// without closure state.
func SendAndLog(ctx context.Context, leadID, waID, body string, channel Sender, store Store, logger *logging.Logger) (SendResult, error) {
	if logger == nil {
		logger = logging.Default()
	}

	providerID, sendErr := channel.SendText(ctx, waID, body)

	rec := MessageRecord{
		LeadID:            leadID,
		Body:              body,
		Status:            StatusSent,
		ProviderMessageID: providerID,
	}
	if sendErr != nil {
		rec.Status = StatusFailed
		rec.ProviderMessageID = ""
	}

	msgID, logErr := store.InsertOutbound(ctx, rec)
	if logErr != nil {
		logger.Error("failed to log outbound message", "error", logErr, "lead_id", leadID)
	}

	if sendErr != nil {
		logger.Error("outbound send failed", "error", sendErr, "lead_id", leadID, "wa_id", waID)
		return SendResult{MessageID: msgID, Status: StatusFailed}, sendErr
	}

	return SendResult{MessageID: msgID, ProviderMessageID: providerID, Status: StatusSent}, nil
}
