package dialog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"konspektbot/m/v2/app/ai"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/converters"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/db/redis"
	"konspektbot/m/v2/app/lib"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/payments"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID    = "900"
	cardNumber = "9860 6067 4424 9933"
	price      = "5000 UZS"
)

var generatedText = strings.Join([]string{
	"1. Mavzu nomi", "2. Maqsad va vazifalar", "3. Kutilayotgan natijalar", "4. Asosiy tushunchalar",
	"5. Yangi mavzuning bayoni", "6. Qoida", "7. Misollar", "8. Jadval", "9. Savollar", "10. Uyga vazifa",
}, "\n")

func TestMain(m *testing.M) {
	config.CONFIG = &config.Config{DataDogClient: &statsd.NoOpClient{}}
	os.Exit(m.Run())
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []models.GenerationRequest
	errs    []error
	started chan struct{}
	release chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, request models.GenerationRequest) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, request)
	var err error
	if len(g.errs) > 0 {
		err, g.errs = g.errs[0], g.errs[1:]
	}
	started, release := g.started, g.release
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return "", err
	}
	return generatedText, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeFiles map[string]string

func (f fakeFiles) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	content, ok := f[handle]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type recordingAlerter struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingAlerter) Alert(ctx context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
}

func (r *recordingAlerter) alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

type fixture struct {
	engine    *Engine
	alerter   *recordingAlerter
	store     *mongo.MockMongoDBClient
	cache     *redis.MockRedisClient
	generator *fakeGenerator
	files     fakeFiles
}

func newFixture(t *testing.T, users ...models.MongoUser) *fixture {
	store := mongo.NewMockMongoDBClient(users...)
	cache := redis.NewMockRedisClient()
	locks := lib.NewUserLocks()
	admins := lib.NewAdminSet([]string{adminID})
	generator := &fakeGenerator{}
	files := fakeFiles{}
	alerter := &recordingAlerter{}
	engine := NewEngine(Options{
		Admins:    admins,
		Alerter:   alerter,
		Cache:     cache,
		Files:     files,
		Gate:      lib.NewGate(store, locks, 3),
		Generator: generator,
		Locks:     locks,
		Payments:  payments.NewWorkflow(store, locks, admins, 3, nil),
		Renderer:  converters.NewDocxRenderer(t.TempDir()),
		Settings: Settings{
			BulkTopicLimit: 5,
			CardNumber:     cardNumber,
			PremiumPrice:   price,
			PreviewPercent: 20,
		},
		Store: store,
	})
	return &fixture{engine: engine, alerter: alerter, store: store, cache: cache, generator: generator, files: files}
}

func (f *fixture) text(userID string, text string) models.OutboundEffects {
	return f.engine.Dispatch(context.Background(), models.TextEvent{UserID: userID, Username: "ustoz", Text: text})
}

func (f *fixture) action(userID string, action models.Action) models.OutboundEffects {
	return f.engine.Dispatch(context.Background(), models.ActionEvent{UserID: userID, Username: "ustoz", Action: action})
}

func (f *fixture) command(userID string, command string, args ...string) models.OutboundEffects {
	return f.engine.Dispatch(context.Background(), models.CommandEvent{UserID: userID, Command: command, Args: args})
}

func (f *fixture) user(t *testing.T, userID string) *models.MongoUser {
	user, err := f.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return user
}

func last(effects models.OutboundEffects) models.Effect {
	if len(effects) == 0 {
		return models.Effect{}
	}
	return effects[len(effects)-1]
}

func awaitingTopic(id string) models.MongoUser {
	return models.MongoUser{
		ID:             id,
		Dialog:         models.Awaiting(models.StepAwaitingTopic, models.ModeDocument),
		PendingSubject: "Tarix",
		PendingGrade:   "7",
	}
}

func TestCancelInAwaitingTopicNeverGenerates(t *testing.T) {
	for name, cancel := range map[string]func(f *fixture) models.OutboundEffects{
		"button":  func(f *fixture) models.OutboundEffects { return f.text("1", ButtonCancel) },
		"action":  func(f *fixture) models.OutboundEffects { return f.action("1", models.ActionCancel) },
		"command": func(f *fixture) models.OutboundEffects { return f.command("1", "/cancel") },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, awaitingTopic("1"))
			effects := cancel(f)
			require.Len(t, effects, 1)
			assert.Equal(t, msgCancelled, effects[0].Content)
			assert.Equal(t, mainMenu(), effects[0].Markup)

			user := f.user(t, "1")
			assert.True(t, user.Dialog.IsIdle())
			assert.Empty(t, user.PendingSubject)
			assert.Zero(t, f.generator.callCount())
		})
	}
}

func TestGradeValidation(t *testing.T) {
	f := newFixture(t, models.MongoUser{
		ID:             "1",
		Dialog:         models.Awaiting(models.StepAwaitingGrade, models.ModeDocument),
		PendingSubject: "Tarix",
	})

	for _, invalid := range []string{"12", "0", "+7", "7.0", "yetti", "", "007"} {
		effects := f.text("1", invalid)
		assert.Equal(t, msgInvalidGrade, last(effects).Content, "grade %q", invalid)
		assert.Equal(t, models.StepAwaitingGrade, f.user(t, "1").Dialog.Step, "grade %q", invalid)
	}

	effects := f.text("1", "7")
	assert.Equal(t, msgEnterTopic, last(effects).Content)
	user := f.user(t, "1")
	assert.Equal(t, models.Awaiting(models.StepAwaitingTopic, models.ModeDocument), user.Dialog)
	assert.Equal(t, "7", user.PendingGrade)
}

func TestParseGrade(t *testing.T) {
	for text, want := range map[string]int{"1": 1, "07": 7, "11": 11} {
		grade, ok := ParseGrade(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, grade)
	}
	for _, text := range []string{"12", "-1", " 7", "1e1"} {
		_, ok := ParseGrade(text)
		assert.False(t, ok, text)
	}
}

func runDocumentFlow(t *testing.T, f *fixture, userID string) models.OutboundEffects {
	effects := f.action(userID, models.ActionNewDocument)
	require.Equal(t, msgChooseSubject, last(effects).Content)
	require.Equal(t, msgChooseGrade, last(f.text(userID, "Tarix")).Content)
	require.Equal(t, msgEnterTopic, last(f.text(userID, "7")).Content)
	return f.text(userID, "Renaissance")
}

func TestFreeQuotaThenPaymentInstructions(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 3; i++ {
		effects := runDocumentFlow(t, f, "1")
		require.Len(t, effects, 1)
		assert.Nil(t, effects[0].Attachment)
		assert.Contains(t, effects[0].Content, "1. Mavzu nomi\n2. Maqsad va vazifalar\n\n")
		assert.NotContains(t, effects[0].Content, "3. Kutilayotgan")
		assert.Contains(t, effects[0].Content, cardNumber)
		assert.Equal(t, i, f.user(t, "1").FreeUsesConsumed)
	}

	effects := f.action("1", models.ActionNewDocument)
	require.Len(t, effects, 1)
	assert.Contains(t, effects[0].Content, "Bepul imkoniyatlar tugadi")
	assert.Contains(t, effects[0].Content, cardNumber)
	assert.Contains(t, effects[0].Content, price)
	assert.True(t, f.user(t, "1").Dialog.IsIdle())
	assert.Equal(t, 3, f.generator.callCount())

	saved, err := redis.GetLastRequest(context.Background(), f.cache, "1")
	require.NoError(t, err)
	assert.Equal(t, &models.GenerationRequest{Subject: "Tarix", Grade: "7", Topic: "Renaissance", Mode: models.GenerationSummaryDocument}, saved)
}

func TestPremiumGetsDocumentAndHistory(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1", Premium: true})

	effects := runDocumentFlow(t, f, "1")
	require.Len(t, effects, 1)
	require.NotNil(t, effects[0].Attachment)
	assert.Equal(t, models.AttachmentDocument, effects[0].Attachment.Kind)
	assert.Equal(t, readyCaptions[models.GenerationSummaryDocument], effects[0].Content)
	handle := effects[0].Attachment.Handle
	assert.True(t, f.engine.renderer.Exists(handle))
	assert.Zero(t, f.user(t, "1").FreeUsesConsumed)

	listing := f.action("1", models.ActionHistory)
	assert.Contains(t, last(listing).Content, "1. Tarix / 7-sinf: Renaissance")
	assert.Equal(t, models.StepSelectingHistory, f.user(t, "1").Dialog.Step)

	assert.Equal(t, msgHistoryInvalid, last(f.text("1", "5")).Content)
	resent := f.text("1", "1")
	require.NotNil(t, last(resent).Attachment)
	assert.Equal(t, handle, last(resent).Attachment.Handle)
	assert.True(t, f.user(t, "1").Dialog.IsIdle())
}

func TestHistoryIsPremiumOnly(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1"})
	assert.Equal(t, msgHistoryPremium, last(f.action("1", models.ActionHistory)).Content)
	assert.True(t, f.user(t, "1").Dialog.IsIdle())
}

func TestPrivilegedUserIsNotCharged(t *testing.T) {
	f := newFixture(t)
	effects := runDocumentFlow(t, f, adminID)
	require.NotNil(t, last(effects).Attachment)
	assert.Zero(t, f.user(t, adminID).FreeUsesConsumed)
}

func TestApprovalRedeliversLastPreview(t *testing.T) {
	f := newFixture(t)
	runDocumentFlow(t, f, "1")

	submitted := f.engine.Dispatch(context.Background(), models.PhotoEvent{UserID: "1", Username: "ustoz", FileHandle: "photo-1"})
	require.Len(t, submitted, 2)
	assert.Equal(t, payments.MessageProofReceived, submitted[0].Content)
	assert.Equal(t, adminID, submitted[1].Recipient)

	effects := f.engine.Dispatch(context.Background(), models.AdminDecisionEvent{AdminID: adminID, RequestID: 1, Outcome: models.OutcomeApprove})
	require.Len(t, effects, 3)
	assert.Equal(t, adminID, effects[0].Recipient)
	assert.Equal(t, payments.MessagePremiumGranted, effects[1].Content)
	assert.Equal(t, "1", effects[2].Recipient)
	require.NotNil(t, effects[2].Attachment)
	assert.Contains(t, effects[2].Content, "Renaissance")
	assert.True(t, f.user(t, "1").Premium)

	saved, err := redis.GetLastRequest(context.Background(), f.cache, "1")
	require.NoError(t, err)
	assert.Nil(t, saved)

	again := f.engine.Dispatch(context.Background(), models.AdminDecisionEvent{AdminID: adminID, RequestID: 1, Outcome: models.OutcomeReject})
	require.Len(t, again, 1)
	assert.Equal(t, payments.MessageAlreadyDecided, again[0].Content)
}

func TestGenerationFailureKeepsStateWithoutRecharging(t *testing.T) {
	f := newFixture(t)
	f.generator.errs = []error{errors.New("boom")}

	effects := runDocumentFlow(t, f, "1")
	require.Len(t, effects, 1)
	assert.Contains(t, effects[0].Content, msgRetryHint)
	user := f.user(t, "1")
	assert.Equal(t, models.StepAwaitingTopic, user.Dialog.Step)
	assert.Empty(t, user.PendingTopic)
	assert.Equal(t, 1, user.FreeUsesConsumed)
	assert.Empty(t, f.alerter.alerts())

	effects = f.text("1", "Renaissance")
	assert.Contains(t, last(effects).Content, cardNumber)
	user = f.user(t, "1")
	assert.True(t, user.Dialog.IsIdle())
	assert.Equal(t, 1, user.FreeUsesConsumed)
}

func rejectedKey() error {
	return &ai.GenerationError{Class: ai.ClassAuth, UserMessage: ai.MessageMisconfigured, Diagnostic: "invalid_api_key"}
}

func TestRejectedCredentialsAlertAdmins(t *testing.T) {
	f := newFixture(t)
	f.generator.errs = []error{rejectedKey()}

	effects := runDocumentFlow(t, f, "1")
	require.Len(t, effects, 2)
	assert.Equal(t, "1", effects[0].Recipient)
	assert.Contains(t, effects[0].Content, ai.MessageMisconfigured)
	assert.Equal(t, adminID, effects[1].Recipient)
	assert.Contains(t, effects[1].Content, "invalid_api_key")

	alerts := f.alerter.alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "invalid_api_key")
	assert.Empty(t, f.user(t, "1").PendingTopic)
}

func TestRejectedCredentialsOnRedeliveryAlertAdmins(t *testing.T) {
	f := newFixture(t)
	runDocumentFlow(t, f, "1")
	f.engine.Dispatch(context.Background(), models.PhotoEvent{UserID: "1", Username: "ustoz", FileHandle: "photo-1"})
	f.generator.errs = []error{rejectedKey()}

	effects := f.engine.Dispatch(context.Background(), models.AdminDecisionEvent{AdminID: adminID, RequestID: 1, Outcome: models.OutcomeApprove})
	require.Len(t, effects, 4)
	assert.Equal(t, payments.MessagePremiumGranted, effects[1].Content)
	assert.Equal(t, "1", effects[2].Recipient)
	assert.Equal(t, ai.MessageMisconfigured, effects[2].Content)
	assert.Equal(t, adminID, effects[3].Recipient)
	assert.Contains(t, effects[3].Content, "invalid_api_key")
	assert.Len(t, f.alerter.alerts(), 1)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1", Premium: true, Dialog: models.Awaiting(models.StepAwaitingTopic, models.ModeDocument), PendingSubject: "Tarix", PendingGrade: "7"})
	f.generator.started = make(chan struct{})
	f.generator.release = make(chan struct{})

	done := make(chan models.OutboundEffects)
	go func() { done <- f.text("1", "Renaissance") }()
	<-f.generator.started

	duplicate := f.text("1", "Reformatsiya")
	assert.Equal(t, msgStillGenerating, last(duplicate).Content)

	cancelled := f.text("1", ButtonCancel)
	assert.Equal(t, msgCancelled, last(cancelled).Content)

	close(f.generator.release)
	assert.Empty(t, <-done)

	user := f.user(t, "1")
	assert.True(t, user.Dialog.IsIdle())
	history, err := f.store.GetHistory(context.Background(), "1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, 1, f.generator.callCount())
}

func TestExpiredPendingTopicIsDropped(t *testing.T) {
	stuck := func(since time.Time) models.MongoUser {
		user := awaitingTopic("1")
		user.Premium = true
		user.PendingTopic = "Renaissance"
		user.PendingSince = since
		return user
	}
	expired := time.Now().Add(-2 * config.DEFAULT_PENDING_TTL)

	t.Run("start", func(t *testing.T) {
		f := newFixture(t, stuck(expired))
		assert.Equal(t, msgWelcome, last(f.command("1", "/start")).Content)
		user := f.user(t, "1")
		assert.True(t, user.Dialog.IsIdle())
		assert.Empty(t, user.PendingTopic)
		assert.True(t, user.PendingSince.IsZero())
	})

	t.Run("menu action", func(t *testing.T) {
		f := newFixture(t, stuck(expired))
		assert.Equal(t, msgChooseSubject, last(f.action("1", models.ActionNewDocument)).Content)
		user := f.user(t, "1")
		assert.Equal(t, models.Awaiting(models.StepAwaitingSubject, models.ModeDocument), user.Dialog)
		assert.Empty(t, user.PendingTopic)
	})

	for name, since := range map[string]time.Time{"topic": expired, "topic without timestamp": {}} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, stuck(since))
			effects := f.text("1", "Reformatsiya")
			require.NotNil(t, last(effects).Attachment)
			require.Equal(t, 1, f.generator.callCount())
			assert.Equal(t, "Reformatsiya", f.generator.calls[0].Topic)
			user := f.user(t, "1")
			assert.True(t, user.Dialog.IsIdle())
			assert.Empty(t, user.PendingTopic)
		})
	}
}

func TestRecentPendingTopicStillRefuses(t *testing.T) {
	user := awaitingTopic("1")
	user.PendingTopic = "Renaissance"
	user.PendingSince = time.Now().UTC()
	f := newFixture(t, user)

	assert.Equal(t, msgStillGenerating, last(f.text("1", "Reformatsiya")).Content)
	assert.Equal(t, msgStillGenerating, last(f.action("1", models.ActionNewDocument)).Content)
	assert.Equal(t, msgWelcome, last(f.command("1", "/start")).Content)

	saved := f.user(t, "1")
	assert.Equal(t, "Renaissance", saved.PendingTopic)
	assert.Equal(t, models.StepAwaitingTopic, saved.Dialog.Step)
	assert.Zero(t, f.generator.callCount())
	assert.Zero(t, saved.FreeUsesConsumed)
}

func TestMenuButtonRestartsFlowInAnyState(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1", Dialog: models.Awaiting(models.StepAwaitingGrade, models.ModeDocument), PendingSubject: "Tarix"})

	effects := f.text("1", ButtonNewLessonPlan)
	assert.Equal(t, msgChooseSubject, last(effects).Content)
	user := f.user(t, "1")
	assert.Equal(t, models.Awaiting(models.StepAwaitingSubject, models.ModeLessonPlan), user.Dialog)
	assert.Empty(t, user.PendingSubject)
	assert.Equal(t, 1, user.FreeUsesConsumed)
}

func TestSubjectSelection(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1", Dialog: models.Awaiting(models.StepAwaitingSubject, models.ModeDocument)})

	assert.Equal(t, msgEnterSubject, last(f.text("1", ButtonOtherSubject)).Content)
	assert.Equal(t, models.StepAwaitingSubject, f.user(t, "1").Dialog.Step)

	assert.Equal(t, msgChooseGrade, last(f.text("1", "Astronomiya")).Content)
	user := f.user(t, "1")
	assert.Equal(t, "Astronomiya", user.PendingSubject)
	assert.Equal(t, models.StepAwaitingGrade, user.Dialog.Step)
}

func TestMenuSubjectIsTopicOutsideSubjectStep(t *testing.T) {
	f := newFixture(t, awaitingTopic("1"))
	f.text("1", "Tarix")
	require.Equal(t, 1, f.generator.callCount())
	assert.Equal(t, "Tarix", f.generator.calls[0].Topic)
}

func TestAdviceFlow(t *testing.T) {
	f := newFixture(t)
	f.action("1", models.ActionNewAdvice)
	f.text("1", "Matematika")
	assert.Equal(t, msgEnterProblem, last(f.text("1", "5")).Content)

	effects := f.text("1", "O‘quvchilar kasrlarni tushunmayapti")
	require.Len(t, effects, 1)
	assert.Nil(t, effects[0].Attachment)
	assert.True(t, strings.HasPrefix(effects[0].Content, "💡 "))
	require.Equal(t, 1, f.generator.callCount())
	assert.Equal(t, models.GenerationAdvisoryText, f.generator.calls[0].Mode)
	assert.True(t, f.user(t, "1").Dialog.IsIdle())
}

func bulkUser(id string, premium bool) models.MongoUser {
	return models.MongoUser{
		ID:             id,
		Premium:        premium,
		Dialog:         models.Awaiting(models.StepAwaitingBulkFile, models.ModeBulk),
		PendingSubject: "Biologiya",
		PendingGrade:   "6",
	}
}

func topicsCSV(n int) string {
	var b strings.Builder
	b.WriteString("Mavzu\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "Mavzu %d\n", i)
	}
	return b.String()
}

func (f *fixture) file(userID string, handle string, name string) models.OutboundEffects {
	return f.engine.Dispatch(context.Background(), models.FileEvent{UserID: userID, FileHandle: handle, FileName: name})
}

func TestBulkWithinLimitGeneratesOnce(t *testing.T) {
	f := newFixture(t, bulkUser("1", false))
	f.files["doc-1"] = topicsCSV(3)

	effects := f.file("1", "doc-1", "mavzular.csv")
	assert.Contains(t, last(effects).Content, cardNumber)
	require.Equal(t, 1, f.generator.callCount())
	assert.Equal(t, "Mavzu 1\nMavzu 2\nMavzu 3", f.generator.calls[0].Topic)
	assert.Equal(t, models.GenerationBulkTopics, f.generator.calls[0].Mode)
	assert.True(t, f.user(t, "1").Dialog.IsIdle())
}

func TestBulkOverLimitForFreeUser(t *testing.T) {
	f := newFixture(t, bulkUser("1", false))
	f.files["doc-1"] = topicsCSV(6)

	effects := f.file("1", "doc-1", "mavzular.csv")
	assert.Contains(t, last(effects).Content, "ko‘pi bilan 5 ta")
	assert.Zero(t, f.generator.callCount())
	assert.True(t, f.user(t, "1").Dialog.IsIdle())
}

func TestBulkOverLimitForPremiumUser(t *testing.T) {
	f := newFixture(t, bulkUser("1", true))
	f.files["doc-1"] = topicsCSV(6)

	effects := f.file("1", "doc-1", "mavzular.csv")
	require.NotNil(t, last(effects).Attachment)
	assert.Equal(t, 1, f.generator.callCount())
}

func TestBulkMissingTopicColumn(t *testing.T) {
	f := newFixture(t, bulkUser("1", false))
	f.files["doc-1"] = "Sana,Izoh\n2024-09-02,birinchi dars\n"

	assert.Equal(t, msgNoTopicColumn, last(f.file("1", "doc-1", "reja.csv")).Content)
	assert.Zero(t, f.generator.callCount())
	assert.True(t, f.user(t, "1").Dialog.IsIdle())
}

func TestBulkRejectsUnsupportedAndUnexpectedFiles(t *testing.T) {
	f := newFixture(t, bulkUser("1", false), models.MongoUser{ID: "2"})
	assert.Equal(t, msgUnsupportedFile, last(f.file("1", "doc-1", "reja.pdf")).Content)
	assert.Equal(t, models.StepAwaitingBulkFile, f.user(t, "1").Dialog.Step)

	assert.Equal(t, msgFileNotExpected, last(f.file("2", "doc-2", "reja.csv")).Content)
}

func TestBlockedUserGetsBlockedMessage(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1", Blocked: true})
	assert.Equal(t, msgBlocked, last(f.text("1", "salom")).Content)
	assert.Equal(t, msgBlocked, last(f.action("1", models.ActionNewDocument)).Content)
	assert.Equal(t, msgBlocked, last(f.command("1", "/start")).Content)
	assert.Equal(t, payments.MessageBlocked, last(f.engine.Dispatch(context.Background(), models.PhotoEvent{UserID: "1", FileHandle: "p"})).Content)
	assert.Zero(t, f.user(t, "1").FreeUsesConsumed)
}

func TestStartRegistersUser(t *testing.T) {
	f := newFixture(t)
	effects := f.engine.Dispatch(context.Background(), models.CommandEvent{UserID: "1", Username: "ustoz", Command: "/start"})
	assert.Equal(t, msgWelcome, last(effects).Content)
	assert.Equal(t, "ustoz", f.user(t, "1").Username)
}

func TestAdminCommands(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1"})

	assert.Equal(t, msgNotAdmin, last(f.command("1", "/payments")).Content)
	assert.Contains(t, last(f.command(adminID, "/payments")).Content, "kutilayotgan to‘lovlar yo‘q")
	assert.Contains(t, last(f.command(adminID, "/users")).Content, "Foydalanuvchilar soni: 1")
	assert.Equal(t, msgAdminHelp, last(f.command(adminID, "/admin")).Content)

	f.command(adminID, "/block", "1")
	assert.True(t, f.user(t, "1").Blocked)
	f.command(adminID, "/unblock", "1")
	assert.False(t, f.user(t, "1").Blocked)

	assert.Contains(t, last(f.command(adminID, "/block")).Content, "Foydalanish")
}

func TestBlockTakesNumericIDOnly(t *testing.T) {
	f := newFixture(t, models.MongoUser{ID: "1", Username: "ustoz"})

	for _, arg := range []string{"@ustoz", "ustoz", "+1", "-1", "01"} {
		effects := f.command(adminID, "/block", arg)
		require.Len(t, effects, 1, arg)
		assert.Equal(t, adminID, effects[0].Recipient)
		assert.Contains(t, effects[0].Content, "Foydalanish", arg)
	}
	assert.False(t, f.user(t, "1").Blocked)
	assert.Equal(t, 0, f.store.PutUserCalls)
}
