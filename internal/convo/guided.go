package convo

import (
	"context"
	"strings"

	"shipment-bot/internal/shipment"
)

// Step is the field the guided form is waiting for.
type Step int

const (
	StepShop Step = iota
	StepCustomer
	StepPhone
	StepDistrict
	StepAddress
	StepAmount
	StepNotes
	stepDone
)

// Form is the guided-mode state of one chat.
type Form struct {
	Step    Step
	Payload shipment.GuidedPayload
}

// transition accepts the answer for one step. reject is sent when accept fails;
// prompt asks for the next step.
type transition struct {
	accept func(f *Form, text string) bool
	reject string
	next   Step
	prompt string
}

var guidedFlow = map[Step]transition{
	StepShop: {
		accept: func(f *Form, text string) bool { f.Payload.ShopName = text; return true },
		next:   StepCustomer,
		prompt: msgAskCustomer,
	},
	StepCustomer: {
		accept: func(f *Form, text string) bool { f.Payload.CustomerName = text; return true },
		next:   StepPhone,
		prompt: msgAskPhone,
	},
	StepPhone: {
		accept: func(f *Form, text string) bool {
			phone := strings.ReplaceAll(text, " ", "")
			if !shipment.IsValidPhone(phone) {
				return false
			}
			f.Payload.Phone = phone
			return true
		},
		reject: msgBadPhone,
		next:   StepDistrict,
		prompt: msgAskDistrict,
	},
	StepDistrict: {
		accept: func(f *Form, text string) bool { f.Payload.District = text; return true },
		next:   StepAddress,
		prompt: msgAskAddress,
	},
	StepAddress: {
		accept: func(f *Form, text string) bool { f.Payload.Address = text; return true },
		next:   StepAmount,
		prompt: msgAskAmount,
	},
	StepAmount: {
		accept: func(f *Form, text string) bool {
			amount, ok := shipment.ParsePlainAmount(text)
			if !ok {
				return false
			}
			f.Payload.AmountIQD = amount
			return true
		},
		reject: msgBadAmount,
		next:   StepNotes,
		prompt: msgAskNotes,
	},
	StepNotes: {
		accept: func(f *Form, text string) bool {
			if text == "-" {
				text = ""
			}
			f.Payload.Notes = text
			return true
		},
		next: stepDone,
	},
}

func (e *Engine) handleGuided(ctx context.Context, evt Event) error {
	key := evt.Chat.Key()
	if cmd, ok := parseCommand(evt.Text); ok {
		switch cmd {
		case "start":
			e.forms.Store(key, &Form{Step: StepShop})
			return e.respond(ctx, evt.Chat, Reply{Text: msgWelcome, Markdown: true})
		case "new":
			e.forms.Store(key, &Form{Step: StepShop})
			return e.respond(ctx, evt.Chat, Reply{Text: msgRestart, Markdown: true})
		case "cancel":
			e.forms.Delete(key)
			return e.respond(ctx, evt.Chat, Reply{Text: msgCancelled})
		case "help":
			return e.respond(ctx, evt.Chat, Reply{Text: msgGuidedHelp})
		default:
			return e.respond(ctx, evt.Chat, Reply{Text: msgStartHint})
		}
	}

	form, ok := e.forms.Load(key)
	if !ok || evt.Text == "" {
		if !ok {
			return e.respond(ctx, evt.Chat, Reply{Text: msgStartHint})
		}
		return nil
	}

	tr := guidedFlow[form.Step]
	if !tr.accept(form, evt.Text) {
		return e.respond(ctx, evt.Chat, Reply{Text: tr.reject})
	}
	form.Step = tr.next
	if form.Step != stepDone {
		return e.respond(ctx, evt.Chat, Reply{Text: tr.prompt, Markdown: true})
	}

	e.forms.Delete(key)
	block, err := JSONBlock(form.Payload)
	if err != nil {
		return err
	}
	e.metrics.Records.WithLabelValues(e.mode, "valid").Inc()
	e.logger.Info("guided shipment completed", "chat", key, "phone", form.Payload.Phone)
	return e.respond(ctx, evt.Chat, Reply{
		Text:     msgGuidedDone + "\n\n" + block + "\n\n" + msgGuidedHint,
		Markdown: true,
	})
}
