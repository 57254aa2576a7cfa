package handler

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"livepoll/internal/domain"
	"livepoll/internal/metrics"
)

// Inbound intent types
const (
	IntentJoinPresenter     = "join-as-presenter"
	IntentJoinParticipant   = "join-as-participant"
	IntentAskQuestion       = "ask-question"
	IntentSubmitAnswer      = "submit-answer"
	IntentEndQuestion       = "end-question"
	IntentRemoveParticipant = "remove-participant"
	IntentGetHistory        = "get-history"
	IntentPing              = "ping"
)

const maxDisplayNameLength = 64

type joinParticipantData struct {
	DisplayName string `json:"display_name"`
}

type submitAnswerData struct {
	Option string `json:"option"`
}

type removeParticipantData struct {
	ParticipantID string `json:"participant_id"`
}

const unknownIntent = "unknown"

// intentLabel bounds the metric label to the known intents
func intentLabel(intent string) string {
	switch intent {
	case IntentJoinPresenter, IntentJoinParticipant, IntentAskQuestion, IntentSubmitAnswer,
		IntentEndQuestion, IntentRemoveParticipant, IntentGetHistory, IntentPing:
		return intent
	default:
		return unknownIntent
	}
}

func (h *SocketHandler) handleMessage(c *client, data []byte) {
	if !c.limiter.Allow() {
		h.finish(c, unknownIntent, domain.ErrRateLimited)
		return
	}
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		h.finish(c, unknownIntent, fmt.Errorf("%w: expected {\"type\", \"data\"}", domain.ErrInvalidRequest))
		return
	}
	h.finish(c, env.Type, h.dispatch(c, env))
}

func (h *SocketHandler) dispatch(c *client, env inboundEnvelope) error {
	switch env.Type {
	case IntentJoinPresenter:
		h.coord.JoinPresenter(c.id)
		return nil

	case IntentJoinParticipant:
		var data joinParticipantData
		if err := decodeData(env.Data, &data); err != nil {
			return err
		}
		name := strings.TrimSpace(data.DisplayName)
		if name == "" || len([]rune(name)) > maxDisplayNameLength {
			return fmt.Errorf("%w: display_name must be 1-%d characters", domain.ErrInvalidRequest, maxDisplayNameLength)
		}
		h.coord.JoinParticipant(c.id, name)
		return nil

	case IntentAskQuestion:
		var data domain.AskQuestionRequest
		if err := decodeData(env.Data, &data); err != nil {
			return err
		}
		_, err := h.coord.AskQuestion(data.Text, data.Options, data.TimeLimitSeconds)
		return err

	case IntentSubmitAnswer:
		var data submitAnswerData
		if err := decodeData(env.Data, &data); err != nil {
			return err
		}
		return h.coord.SubmitAnswer(c.id, data.Option)

	case IntentEndQuestion:
		return h.coord.EndQuestion()

	case IntentRemoveParticipant:
		var data removeParticipantData
		if err := decodeData(env.Data, &data); err != nil {
			return err
		}
		return h.coord.RemoveParticipant(data.ParticipantID)

	case IntentGetHistory:
		h.coord.RequestHistory(c.id)
		return nil

	case IntentPing:
		c.Deliver(domain.Pong{})
		return nil

	default:
		return fmt.Errorf("%w: unknown intent %q", domain.ErrInvalidRequest, env.Type)
	}
}

// finish records the outcome and tells the sender about non-benign failures
func (h *SocketHandler) finish(c *client, intent string, err error) {
	label := intentLabel(intent)
	if err == nil {
		metrics.IncIntent(label, "ok")
		return
	}

	kind := domain.RejectionKindOf(err)
	metrics.IncIntent(label, string(kind))

	if domain.IsBenign(err) {
		h.logger.Debug("Ignoring repeated intent",
			zap.String("connection_id", c.id),
			zap.String("intent", intent),
			zap.Error(err))
		return
	}

	message := err.Error()
	if kind == domain.RejectInternal {
		h.logger.Error("Intent failed", zap.String("intent", intent), zap.Error(err))
		message = "internal error"
	}
	c.Deliver(domain.Rejected{Intent: intent, Kind: kind, Message: message})
}

func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: data is required", domain.ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}
