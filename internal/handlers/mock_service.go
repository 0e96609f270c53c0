package handlers

import (
	"context"
	"net/http"
	"time"

	"annealer_control/internal/models"
	"annealer_control/internal/service"
	"annealer_control/internal/steps"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockProcessEditor struct {
	view    service.ProcessView
	loadErr error
	saveErr error
	descErr error
	addErr  error
	moveErr error
	rmErr   error
	types   []steps.Descriptor

	lastLoadPath string
	lastSavePath string
	lastDesc     string
	lastAdd      service.StepParams
	lastMoveFrom int
	lastMoveTo   int
	lastRemove   int
}

func (m *mockProcessEditor) Get(ctx context.Context) service.ProcessView { return m.view }
func (m *mockProcessEditor) Load(ctx context.Context, path string) error {
	m.lastLoadPath = path
	return m.loadErr
}
func (m *mockProcessEditor) Save(ctx context.Context, path string) error {
	m.lastSavePath = path
	return m.saveErr
}
func (m *mockProcessEditor) SetDescription(ctx context.Context, d string) error {
	m.lastDesc = d
	return m.descErr
}
func (m *mockProcessEditor) AddStep(ctx context.Context, p service.StepParams) error {
	m.lastAdd = p
	return m.addErr
}
func (m *mockProcessEditor) MoveStep(ctx context.Context, from, to int) error {
	m.lastMoveFrom, m.lastMoveTo = from, to
	return m.moveErr
}
func (m *mockProcessEditor) RemoveStep(ctx context.Context, index int) error {
	m.lastRemove = index
	return m.rmErr
}
func (m *mockProcessEditor) StepTypes(ctx context.Context) []steps.Descriptor { return m.types }

type mockRunner struct {
	startErr error
	stopErr  error
	resetErr error
	status   service.RunStatus
	runs     []models.Run
	runsErr  error

	startCalled int
	stopCalled  int
	resetCalled int
	lastForce   bool
	lastLimit   int
}

func (m *mockRunner) Start(ctx context.Context) error {
	m.startCalled++
	return m.startErr
}
func (m *mockRunner) Stop(ctx context.Context, force bool) error {
	m.stopCalled++
	m.lastForce = force
	return m.stopErr
}
func (m *mockRunner) Reset(ctx context.Context) error {
	m.resetCalled++
	return m.resetErr
}
func (m *mockRunner) Status(ctx context.Context) service.RunStatus { return m.status }
func (m *mockRunner) Runs(ctx context.Context, limit int) ([]models.Run, error) {
	m.lastLimit = limit
	return m.runs, m.runsErr
}

type mockMonitoring struct {
	sample  models.Telemetry
	samples chan models.Telemetry
}

func (m *mockMonitoring) Snapshot(ctx context.Context) models.Telemetry { return m.sample }
func (m *mockMonitoring) Subscribe(buffer int) (<-chan models.Telemetry, func()) {
	if m.samples == nil {
		m.samples = make(chan models.Telemetry, buffer)
	}
	return m.samples, func() {}
}

type mockEventLog struct {
	resp     []models.RunEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.RunEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
