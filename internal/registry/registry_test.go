package registry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// testModule is a minimal module for testing.
type testModule struct {
	info      plugin.PluginInfo
	initErr   error
	startErr  error
	stopOrder *[]string
	stopCount *int32
}

func newTestModule(name string, deps ...string) *testModule {
	return &testModule{
		info: plugin.PluginInfo{
			Name:         name,
			Version:      "1.0.0",
			Description:  "test module " + name,
			Dependencies: deps,
			APIVersion:   plugin.APIVersionCurrent,
		},
	}
}

func (p *testModule) Info() plugin.PluginInfo { return p.info }

func (p *testModule) Init(_ context.Context, _ plugin.Dependencies) error { return p.initErr }

func (p *testModule) Start(_ context.Context) error { return p.startErr }

func (p *testModule) Stop(_ context.Context) error {
	if p.stopCount != nil {
		atomic.AddInt32(p.stopCount, 1)
	}
	if p.stopOrder != nil {
		*p.stopOrder = append(*p.stopOrder, p.info.Name)
	}
	return nil
}

// testHTTPModule implements both Plugin and HTTPProvider.
type testHTTPModule struct {
	testModule
	routes []plugin.Route
}

func (p *testHTTPModule) Routes() []plugin.Route { return p.routes }

// testRootRouteModule also serves unprefixed routes.
type testRootRouteModule struct {
	testModule
	rootRoutes []plugin.Route
}

func (p *testRootRouteModule) RootRoutes() []plugin.Route { return p.rootRoutes }

// testEventSubModule implements both Plugin and EventSubscriber.
type testEventSubModule struct {
	testModule
	subscriptions []plugin.Subscription
}

func (p *testEventSubModule) Subscriptions() []plugin.Subscription { return p.subscriptions }

// testBus records Subscribe calls for verification.
type testBus struct {
	topics []string
}

func (b *testBus) Publish(_ context.Context, _ plugin.Event) error { return nil }
func (b *testBus) PublishAsync(_ context.Context, _ plugin.Event)  {}
func (b *testBus) Subscribe(topic string, _ plugin.EventHandler) (unsubscribe func()) {
	b.topics = append(b.topics, topic)
	return func() {}
}
func (b *testBus) SubscribeAll(_ plugin.EventHandler) (unsubscribe func()) {
	return func() {}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testDeps() func(string) plugin.Dependencies {
	return func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Logger: testLogger().Named(name),
		}
	}
}

func TestRegister(t *testing.T) {
	reg := New(testLogger())

	p := newTestModule("alpha")
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Duplicate registration should fail.
	if err := reg.Register(p); err == nil {
		t.Fatal("Register() expected error for duplicate, got nil")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	reg := New(testLogger())
	p := &testModule{info: plugin.PluginInfo{Name: ""}}
	if err := reg.Register(p); err == nil {
		t.Fatal("Register() expected error for empty name, got nil")
	}
}

func TestValidateNoDeps(t *testing.T) {
	reg := New(testLogger())
	_ = reg.Register(newTestModule("a"))
	_ = reg.Register(newTestModule("b"))

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if all := reg.All(); len(all) != 2 {
		t.Fatalf("All() returned %d modules, want 2", len(all))
	}
}

func TestValidateWithDeps(t *testing.T) {
	reg := New(testLogger())
	_ = reg.Register(newTestModule("overview", "fleet")) // overview depends on fleet
	_ = reg.Register(newTestModule("fleet"))

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	all := reg.All()
	fleetIdx, overviewIdx := -1, -1
	for i, p := range all {
		switch p.Info().Name {
		case "fleet":
			fleetIdx = i
		case "overview":
			overviewIdx = i
		}
	}
	if fleetIdx >= overviewIdx {
		t.Errorf("expected fleet (idx %d) before overview (idx %d)", fleetIdx, overviewIdx)
	}
}

func TestValidateCycleDetection(t *testing.T) {
	reg := New(testLogger())
	_ = reg.Register(newTestModule("a", "b"))
	_ = reg.Register(newTestModule("b", "a"))

	if err := reg.Validate(); err == nil {
		t.Fatal("Validate() expected cycle error, got nil")
	}
}

func TestValidateMissingRequiredDep(t *testing.T) {
	reg := New(testLogger())
	p := newTestModule("a", "missing")
	p.info.Required = true
	_ = reg.Register(p)

	if err := reg.Validate(); err == nil {
		t.Fatal("Validate() expected error for missing required dep, got nil")
	}
}

func TestValidateDisablesOptionalWithMissingDep(t *testing.T) {
	reg := New(testLogger())
	_ = reg.Register(newTestModule("a", "missing")) // optional, dep doesn't exist

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !reg.IsDisabled("a") {
		t.Error("expected module 'a' to be disabled")
	}
}

func TestAPIVersionTooOld(t *testing.T) {
	reg := New(testLogger())
	p := newTestModule("old")
	p.info.APIVersion = 0 // below APIVersionMin
	p.info.Required = true
	_ = reg.Register(p)

	if err := reg.Validate(); err == nil {
		t.Fatal("Validate() expected error for old API version, got nil")
	}
}

func TestAPIVersionTooNew(t *testing.T) {
	reg := New(testLogger())
	p := newTestModule("future")
	p.info.APIVersion = 999 // above APIVersionCurrent
	p.info.Required = true
	_ = reg.Register(p)

	if err := reg.Validate(); err == nil {
		t.Fatal("Validate() expected error for future API version, got nil")
	}
}

func TestCascadeDisable(t *testing.T) {
	reg := New(testLogger())

	a := newTestModule("a")
	a.info.APIVersion = 0 // will be disabled (too old)

	b := newTestModule("b", "a") // depends on a

	_ = reg.Register(a)
	_ = reg.Register(b)

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !reg.IsDisabled("a") {
		t.Error("expected 'a' to be disabled (bad API version)")
	}
	if !reg.IsDisabled("b") {
		t.Error("expected 'b' to be cascade disabled")
	}
}

func TestInitAll(t *testing.T) {
	reg := New(testLogger())
	_ = reg.Register(newTestModule("a"))
	_ = reg.Register(newTestModule("b"))
	_ = reg.Validate()

	if err := reg.InitAll(context.Background(), testDeps()); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
}

func TestInitAllRequiredFails(t *testing.T) {
	reg := New(testLogger())
	p := newTestModule("a")
	p.info.Required = true
	p.initErr = errors.New("init failed")
	_ = reg.Register(p)
	_ = reg.Validate()

	if err := reg.InitAll(context.Background(), testDeps()); err == nil {
		t.Fatal("InitAll() expected error for required module failure, got nil")
	}
}

func TestInitAllOptionalDisabledOnFailure(t *testing.T) {
	reg := New(testLogger())
	p := newTestModule("a")
	p.initErr = errors.New("init failed")
	_ = reg.Register(p)
	_ = reg.Validate()

	if err := reg.InitAll(context.Background(), testDeps()); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if !reg.IsDisabled("a") {
		t.Error("expected optional module 'a' to be disabled after init failure")
	}
}

func TestInitAll_WiresEventSubscriber(t *testing.T) {
	reg := New(testLogger())

	p := &testEventSubModule{
		testModule: *newTestModule("ws"),
		subscriptions: []plugin.Subscription{
			{Topic: "camhub.fleet.node.created", Handler: func(_ context.Context, _ plugin.Event) {}},
			{Topic: "camhub.overview.probe.failed", Handler: func(_ context.Context, _ plugin.Event) {}},
		},
	}
	_ = reg.Register(p)
	_ = reg.Validate()

	bus := &testBus{}
	err := reg.InitAll(context.Background(), func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Logger: testLogger().Named(name),
			Bus:    bus,
		}
	})
	if err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}

	if len(bus.topics) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(bus.topics))
	}
	if bus.topics[0] != "camhub.fleet.node.created" {
		t.Errorf("topics[0] = %q, want camhub.fleet.node.created", bus.topics[0])
	}
	if bus.topics[1] != "camhub.overview.probe.failed" {
		t.Errorf("topics[1] = %q, want camhub.overview.probe.failed", bus.topics[1])
	}
}

func TestStartAllOptionalDisabledOnFailure(t *testing.T) {
	reg := New(testLogger())
	p := newTestModule("a")
	p.startErr = errors.New("start failed")
	_ = reg.Register(p)
	_ = reg.Validate()
	_ = reg.InitAll(context.Background(), testDeps())

	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if !reg.IsDisabled("a") {
		t.Error("expected optional module 'a' to be disabled after start failure")
	}
}

func TestStopAll_ReverseOrder(t *testing.T) {
	// Start order: fleet, overview, ws. Stop order should be the reverse.
	var stopOrder []string
	reg := New(testLogger())

	fleet := newTestModule("fleet")
	fleet.stopOrder = &stopOrder
	overview := newTestModule("overview", "fleet")
	overview.stopOrder = &stopOrder
	ws := newTestModule("ws", "overview")
	ws.stopOrder = &stopOrder

	_ = reg.Register(fleet)
	_ = reg.Register(overview)
	_ = reg.Register(ws)
	_ = reg.Validate()

	ctx := context.Background()
	_ = reg.InitAll(ctx, testDeps())
	_ = reg.StartAll(ctx)
	reg.StopAll(ctx)

	expected := []string{"ws", "overview", "fleet"}
	if len(stopOrder) != len(expected) {
		t.Fatalf("stop order = %v, want %v", stopOrder, expected)
	}
	for i, name := range expected {
		if stopOrder[i] != name {
			t.Errorf("stop order[%d] = %q, want %q", i, stopOrder[i], name)
		}
	}
}

func TestStopAll_DisabledModulesSkipped(t *testing.T) {
	var stopCount int32
	reg := New(testLogger())

	active := newTestModule("active")
	active.stopCount = &stopCount

	disabled := newTestModule("disabled")
	disabled.stopCount = &stopCount
	disabled.info.APIVersion = 0 // disabled during Validate

	_ = reg.Register(active)
	_ = reg.Register(disabled)
	_ = reg.Validate()

	ctx := context.Background()
	_ = reg.InitAll(ctx, testDeps())
	_ = reg.StartAll(ctx)
	reg.StopAll(ctx)

	if stopCount != 1 {
		t.Errorf("stop count = %d, want 1 (disabled module should be skipped)", stopCount)
	}
}

func TestGetAndResolve(t *testing.T) {
	reg := New(testLogger())
	_ = reg.Register(newTestModule("fleet"))
	_ = reg.Validate()

	if _, ok := reg.Get("fleet"); !ok {
		t.Error("Get('fleet') returned false, want true")
	}
	if _, ok := reg.Resolve("fleet"); !ok {
		t.Error("Resolve('fleet') returned false, want true")
	}
	if _, ok := reg.Get("nonexistent"); ok {
		t.Error("Get('nonexistent') returned true, want false")
	}
}

func TestAllRoutes(t *testing.T) {
	reg := New(testLogger())

	hp := &testHTTPModule{
		testModule: *newTestModule("fleet"),
		routes: []plugin.Route{
			{Method: "GET", Path: "/nodes"},
		},
	}
	_ = reg.Register(hp)
	_ = reg.Register(newTestModule("noroutes")) // no HTTPProvider

	_ = reg.Validate()
	_ = reg.InitAll(context.Background(), testDeps())

	routes := reg.AllRoutes()
	if len(routes) != 1 {
		t.Fatalf("AllRoutes() returned %d module route sets, want 1", len(routes))
	}
	if _, ok := routes["fleet"]; !ok {
		t.Error("AllRoutes() missing 'fleet' routes")
	}
}

func TestAllRootRoutes(t *testing.T) {
	reg := New(testLogger())

	rp := &testRootRouteModule{
		testModule: *newTestModule("stream"),
		rootRoutes: []plugin.Route{
			{Method: "GET", Path: "/health"},
		},
	}
	_ = reg.Register(rp)
	_ = reg.Validate()
	_ = reg.InitAll(context.Background(), testDeps())

	routes := reg.AllRootRoutes()
	if len(routes) != 1 {
		t.Fatalf("AllRootRoutes() returned %d module route sets, want 1", len(routes))
	}
	if _, ok := routes["stream"]; !ok {
		t.Error("AllRootRoutes() missing 'stream' routes")
	}
}
