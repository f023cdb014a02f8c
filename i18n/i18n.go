// Package i18n holds the UI message catalog (Italian and English).
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

const (
	Italian = "it"
	English = "en"
	// Default is used when nothing better matches.
	Default = Italian
)

var matcher = language.NewMatcher([]language.Tag{language.Italian, language.English})

var catalog = map[string]map[string]string{
	Italian: {
		"required":                   "Obbligatorio",
		"invalid_email":              "Email non valida",
		"invalid_choice":             "Valore non ammesso",
		"invalid_date":               "Data non valida",
		"end_before_start":           "La data di fine precede l'inizio",
		"out_of_range":               "Valore fuori intervallo",
		"invalid_credentials":        "Credenziali non valide",
		"too_many_attempts":          "Troppi tentativi, riprova più tardi",
		"forbidden":                  "Accesso negato",
		"not_found":                  "Non trovato",
		"saved":                      "Salvato",
		"deleted":                    "Eliminato",
		"already_assigned":           "Arbitro già assegnato al torneo",
		"already_available":          "Disponibilità già comunicata",
		"notification_resent":        "Notifica rimessa in coda",
		"nav.dashboard":              "Dashboard",
		"nav.tournaments":            "Tornei",
		"nav.availabilities":         "Disponibilità",
		"nav.communications":         "Comunicazioni",
		"nav.logout":                 "Esci",
		"dashboard.title":            "La mia area",
		"dashboard.comms":            "Comunicazioni attive",
		"dashboard.upcoming":         "Prossimi tornei",
		"dashboard.recent":           "Disponibilità recenti",
		"dashboard.assignments":      "Designazioni",
		"dashboard.none":             "Nessun elemento",
		"admin.title":                "Pannello amministrazione",
		"admin.pending":              "Notifiche in attesa",
		"admin.failed":               "Notifiche fallite",
		"login.title":                "Accedi",
		"login.submit":               "Entra",
		"internal_error":             "Errore interno",
		"invalid_request":            "Richiesta non valida",
		"validation_failed":          "Dati non validi",
		"not_resendable":             "Solo le notifiche fallite possono essere reinviate",
		"tournament_started":         "Il torneo è già iniziato",
		"already_exists":             "Già esistente",
		"in_use":                     "Elemento in uso",
		"cannot_delete_self":         "Non puoi eliminare il tuo account",
		"password_too_short":         "Password troppo corta",
		"nav.assignments":            "Designazioni",
		"nav.clubs":                  "Circoli",
		"nav.users":                  "Utenti",
		"nav.zones":                  "Zone",
		"nav.notifications":          "Notifiche",
		"nav.admin":                  "Amministrazione",
		"field.name":                 "Nome",
		"field.email":                "Email",
		"field.password":             "Password",
		"field.role":                 "Ruolo",
		"field.zone":                 "Zona",
		"field.club":                 "Circolo",
		"field.city":                 "Città",
		"field.start_date":           "Data inizio",
		"field.end_date":             "Data fine",
		"field.notes":                "Note",
		"field.title":                "Titolo",
		"field.body":                 "Testo",
		"field.status":               "Stato",
		"field.priority":             "Priorità",
		"field.expires_at":           "Scadenza",
		"field.referee_code":         "Codice arbitro",
		"field.referee_level":        "Livello",
		"field.phone":                "Telefono",
		"field.code":                 "Codice",
		"field.notify_at":            "Invio convocazione",
		"field.recipient":            "Destinatario",
		"field.scheduled_at":         "Programmata",
		"field.error":                "Errore",
		"action.save":                "Salva",
		"action.delete":              "Elimina",
		"action.edit":                "Modifica",
		"action.new":                 "Nuovo",
		"action.assign":              "Assegna",
		"action.declare":             "Dichiara disponibilità",
		"action.withdraw":            "Ritira",
		"action.resend":              "Reinvia",
		"action.print":               "Stampa convocazione",
		"tournament.referees":        "Arbitri designati",
		"tournament.availabilities":  "Disponibilità ricevute",
		"tournament.my_availability": "Hai dichiarato la tua disponibilità",
		"admin.upcoming":             "Tornei in programma",
		"admin.referees":             "Arbitri",
		"admin.open_availabilities":  "Disponibilità aperte",
		"admin.next":                 "Prossimi tornei",
		"admin.failures":             "Invii falliti",
		"national":                   "Nazionale",
	},
	English: {
		"required":                   "Required",
		"invalid_email":              "Invalid email",
		"invalid_choice":             "Value not allowed",
		"invalid_date":               "Invalid date",
		"end_before_start":           "End date is before start date",
		"out_of_range":               "Value out of range",
		"invalid_credentials":        "Invalid credentials",
		"too_many_attempts":          "Too many attempts, try again later",
		"forbidden":                  "Forbidden",
		"not_found":                  "Not found",
		"saved":                      "Saved",
		"deleted":                    "Deleted",
		"already_assigned":           "Referee already assigned to this tournament",
		"already_available":          "Availability already declared",
		"notification_resent":        "Notification queued again",
		"nav.dashboard":              "Dashboard",
		"nav.tournaments":            "Tournaments",
		"nav.availabilities":         "Availabilities",
		"nav.communications":         "Communications",
		"nav.logout":                 "Log out",
		"dashboard.title":            "My area",
		"dashboard.comms":            "Active communications",
		"dashboard.upcoming":         "Upcoming tournaments",
		"dashboard.recent":           "Recent availabilities",
		"dashboard.assignments":      "Assignments",
		"dashboard.none":             "Nothing here",
		"admin.title":                "Administration",
		"admin.pending":              "Pending notifications",
		"admin.failed":               "Failed notifications",
		"login.title":                "Sign in",
		"login.submit":               "Sign in",
		"internal_error":             "Internal error",
		"invalid_request":            "Invalid request",
		"validation_failed":          "Invalid data",
		"not_resendable":             "Only failed notifications can be resent",
		"tournament_started":         "The tournament has already started",
		"already_exists":             "Already exists",
		"in_use":                     "Still in use",
		"cannot_delete_self":         "You cannot delete your own account",
		"password_too_short":         "Password too short",
		"nav.assignments":            "Assignments",
		"nav.clubs":                  "Clubs",
		"nav.users":                  "Users",
		"nav.zones":                  "Zones",
		"nav.notifications":          "Notifications",
		"nav.admin":                  "Administration",
		"field.name":                 "Name",
		"field.email":                "Email",
		"field.password":             "Password",
		"field.role":                 "Role",
		"field.zone":                 "Zone",
		"field.club":                 "Club",
		"field.city":                 "City",
		"field.start_date":           "Start date",
		"field.end_date":             "End date",
		"field.notes":                "Notes",
		"field.title":                "Title",
		"field.body":                 "Text",
		"field.status":               "Status",
		"field.priority":             "Priority",
		"field.expires_at":           "Expires",
		"field.referee_code":         "Referee code",
		"field.referee_level":        "Level",
		"field.phone":                "Phone",
		"field.code":                 "Code",
		"field.notify_at":            "Send convocation at",
		"field.recipient":            "Recipient",
		"field.scheduled_at":         "Scheduled",
		"field.error":                "Error",
		"action.save":                "Save",
		"action.delete":              "Delete",
		"action.edit":                "Edit",
		"action.new":                 "New",
		"action.assign":              "Assign",
		"action.declare":             "Declare availability",
		"action.withdraw":            "Withdraw",
		"action.resend":              "Resend",
		"action.print":               "Print convocation",
		"tournament.referees":        "Assigned referees",
		"tournament.availabilities":  "Availabilities received",
		"tournament.my_availability": "You declared your availability",
		"admin.upcoming":             "Upcoming tournaments",
		"admin.referees":             "Referees",
		"admin.open_availabilities":  "Open availabilities",
		"admin.next":                 "Next tournaments",
		"admin.failures":             "Failed deliveries",
		"national":                   "National",
	},
}

// T translates code into lang, falling back to the default language and then
// to the code itself.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[Default][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// DetectLanguage picks the best supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return Italian
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, strings.ToLower(lang))
}

// LangFromContext returns the stored language or Default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && Supported(l) {
		return l
	}
	return Default
}
