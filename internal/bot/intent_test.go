package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmoralesv/optica-crm/internal/leads"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		leadStatus string
		wantKind   IntentKind
		wantTopic  MenuTopic
	}{
		// Handoff wins over everything.
		{name: "literal 9", text: "9", leadStatus: leads.StatusInterested, wantKind: IntentHandoff},
		{name: "asesor", text: "quiero hablar con un asesor", leadStatus: leads.StatusInterested, wantKind: IntentHandoff},
		{name: "ayuda", text: "AYUDA", leadStatus: leads.StatusInterested, wantKind: IntentHandoff},
		{name: "hablar con alguien", text: "puedo hablar con alguien?", leadStatus: leads.StatusInterested, wantKind: IntentHandoff},
		{name: "handoff beats appointment", text: "quiero una cita con un humano", leadStatus: leads.StatusInterested, wantKind: IntentHandoff},

		// Appointment intent wins over the menu "examen" token.
		{name: "quiero un examen", text: "quiero un examen", leadStatus: leads.StatusInterested, wantKind: IntentAppointment},
		{name: "bare examen", text: "examen", leadStatus: leads.StatusInterested, wantKind: IntentAppointment},
		{name: "agendar", text: "me gustaria agendar", leadStatus: leads.StatusInterested, wantKind: IntentAppointment},
		{name: "cuando puedo ir", text: "cuando puedo ir", leadStatus: leads.StatusInterested, wantKind: IntentAppointment},
		{name: "revision accented", text: "necesito una revisión", leadStatus: leads.StatusInterested, wantKind: IntentAppointment},

		// Numbered menu.
		{name: "digit 1", text: "1", leadStatus: leads.StatusInterested, wantKind: IntentMenu, wantTopic: TopicExam},
		{name: "uno", text: "uno", leadStatus: leads.StatusInterested, wantKind: IntentMenu, wantTopic: TopicExam},
		{name: "digit 2", text: "2", leadStatus: leads.StatusInterested, wantKind: IntentMenu, wantTopic: TopicLenses},
		{name: "lentes", text: "lentes", leadStatus: leads.StatusInterested, wantKind: IntentMenu, wantTopic: TopicLenses},
		{name: "monturas", text: "monturas", leadStatus: leads.StatusInterested, wantKind: IntentMenu, wantTopic: TopicFrames},
		{name: "promociones", text: " promociones ", leadStatus: leads.StatusInterested, wantKind: IntentMenu, wantTopic: TopicPromos},

		// Greeting / menu keywords.
		{name: "hola", text: "Hola!", leadStatus: leads.StatusCustomer, wantKind: IntentGreeting},
		{name: "buenos dias", text: "buenos dias", leadStatus: leads.StatusQuoted, wantKind: IntentGreeting},
		{name: "menu", text: "menu", leadStatus: leads.StatusInterested, wantKind: IntentGreeting},

		// First-contact fallback: status new gets the menu with no keyword.
		{name: "new lead fallback", text: "xyzzy", leadStatus: leads.StatusNew, wantKind: IntentGreeting},

		// Silence on conversational filler.
		{name: "no match", text: "gracias!", leadStatus: leads.StatusInterested, wantKind: IntentNone},
		{name: "digit out of menu", text: "7", leadStatus: leads.StatusInterested, wantKind: IntentNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text, tt.leadStatus)
			assert.Equal(t, tt.wantKind, got.Kind, "kind for %q", tt.text)
			if tt.wantTopic != "" {
				assert.Equal(t, tt.wantTopic, got.Topic)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	// Same inputs, same answer, no hidden state.
	first := Classify("quiero una cita", leads.StatusInterested)
	second := Classify("quiero una cita", leads.StatusInterested)
	assert.Equal(t, first, second)
}

func TestIntentKindString(t *testing.T) {
	assert.Equal(t, "human_handoff", IntentHandoff.String())
	assert.Equal(t, "appointment_intent", IntentAppointment.String())
	assert.Equal(t, "greeting_or_menu", IntentGreeting.String())
	assert.Equal(t, "numbered_menu_choice", IntentMenu.String())
	assert.Equal(t, "no_match", IntentNone.String())
}
