// Package texts holds the fixed user-facing copy of the club bot.
package texts

// Reply keyboard keywords. They are matched verbatim.
const (
	KeywordRestart = "Restart 🔄"
	KeywordCancel  = "Cancel ❌"
)

// ReplyKeyboard is the persistent keyboard shown under the chat input.
var ReplyKeyboard = [][]string{{KeywordRestart, KeywordCancel}}

const (
	Welcome = "Hi! Welcome to the *English Club* bot 🇬🇧☕\n" +
		"Here you can browse English conversation meetups in the city's cafés and sign up."
	ChooseOption = "Choose an option:"
	Cancelled    = "Operation cancelled."
	Incomplete   = "⚠️ That registration was incomplete. Please start again."

	FAQ = "*Frequently asked questions ❔*\n\n" +
		"• *When and where?* We run several meetups every week; see «🎉 Upcoming events».\n" +
		"• *Language level?* Any level is fine; we ask for yours to build better groups.\n" +
		"• *Cost?* Some meetups are free, some have a small fee (for example one drink included).\n" +
		"• *Confirmation?* Your registration goes to the organisers; once approved, you get the coordination link."
	SupportPrefix = "For support, message:\n"

	Rules = "⚠️ English Club rules:\n" +
		"• Be respectful to every participant.\n" +
		"• Speak English as much as you can.\n" +
		"• If you change your mind, let us know early.\n"

	UpcomingEvents = "Upcoming events:"
	PickEvent      = "Pick one of the events:"
	NoEvents       = "No events yet"
	EventNotFound  = "This event was not found."

	AskName     = "Please enter your *full name*:"
	InvalidName = "Please enter a valid name (2 to 60 characters)."
	AskPhone    = "Enter your phone number or tap the button below:"
	EmptyPhone  = "Please send a phone number."
	PhoneSaved  = "📱 Thanks, got your number."
	AskLevel    = "What's your English level? Pick one:"
	AskNote     = "Any note or special request? (optional) Type it here and send. If there's nothing, just send a dash `-`."

	Approved     = "🎉 Your registration is approved! Final details will be sent to you soon."
	ApprovedLink = "🎉 Your registration is approved!\n\nEvent details and the group/coordination link:\n"
	Rejected     = "⚠️ Unfortunately your registration was not approved."

	ModerationTitle = "🔔 *New English Club registration*"
	ApprovedBy      = "✅ Approved by "
	RejectedBy      = "❌ Rejected by "
	ForeignChat     = "Decisions are only accepted in the moderation chat."
	BadDecision     = "This decision button is no longer valid."

	RateLimited = "Slow down a little, please 🙂"
)

// Button labels.
const (
	ButtonEvents       = "🎉 Upcoming events"
	ButtonRegister     = "📝 Register for an event"
	ButtonSchedule     = "📋 Schedules & capacity"
	ButtonFAQ          = "❔ FAQ"
	ButtonSupport      = "🆘 Support"
	ButtonBack         = "↩️ Back"
	ButtonRegisterThis = "📝 Register for this event"
	ButtonMap          = "🗺️ Open map"
	ButtonAcceptRules  = "✅ I agree, continue"
	ButtonSharePhone   = "Share phone number 📱"
	ButtonApprove      = "✅ Approve"
	ButtonReject       = "❌ Reject"
)

// Command menu descriptions.
const (
	CommandStart  = "Main menu"
	CommandCancel = "Cancel the current registration"
	CommandHelp   = "Frequently asked questions"
)

// DefaultSupportContact is used when no support contact is configured.
const DefaultSupportContact = "@englishclub_support"
