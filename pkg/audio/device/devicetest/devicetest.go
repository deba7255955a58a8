// ABOUTME: Scripted in-memory audio platform for tests
// ABOUTME: Records submissions and lets tests drive padding, failures and device loss
package devicetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/device"
)

// DefaultBufferFrames is the buffer capacity reported by fake clients
const DefaultBufferFrames = 480

// Submission is one ReleaseBuffer call observed by the platform
type Submission struct {
	// Activation is the 1-based index of the client that received the data
	Activation int
	Frames     int
	Data       []byte
}

// Option configures a Platform
type Option func(*Platform)

// WithBufferFrames sets the buffer capacity reported by every client
func WithBufferFrames(n int) Option {
	return func(p *Platform) { p.bufferFrames = n }
}

// WithClosest makes clients reject the preferred format and propose f
func WithClosest(f audio.Format) Option {
	return func(p *Platform) {
		p.supported = false
		p.closest = &f
	}
}

// WithMixOnly makes clients reject the preferred format without a proposal
func WithMixOnly(mix audio.Format) Option {
	return func(p *Platform) {
		p.supported = false
		p.closest = nil
		p.mix = mix
	}
}

// Platform is a device.Platform whose single default endpoint is scripted
// by the test.
type Platform struct {
	mu           sync.Mutex
	supported    bool
	closest      *audio.Format
	mix          audio.Format
	bufferFrames int

	noDevice     int
	activateFail int
	initFail     int
	initCode     int
	getBufferErr error

	clients []*Client
	closed  bool

	// Submissions receives every released buffer. Sends never block; when
	// the channel is full the submission is dropped.
	Submissions chan Submission
}

// New creates a platform that supports the preferred format by default
func New(opts ...Option) *Platform {
	p := &Platform{
		supported:    true,
		mix:          audio.FloatFormat(audio.DefaultSampleRate),
		bufferFrames: DefaultBufferFrames,
		Submissions:  make(chan Submission, 256),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// consume decrements a failure budget. Negative budgets never run out.
func consume(n *int) bool {
	if *n == 0 {
		return false
	}
	if *n > 0 {
		*n--
	}
	return true
}

// FailDefaultEndpoint makes the next n endpoint lookups report no device.
// A negative n fails forever.
func (p *Platform) FailDefaultEndpoint(n int) {
	p.mu.Lock()
	p.noDevice = n
	p.mu.Unlock()
}

// FailActivate makes the next n activations fail
func (p *Platform) FailActivate(n int) {
	p.mu.Lock()
	p.activateFail = n
	p.mu.Unlock()
}

// FailInit makes the next n client initializations fail with code
func (p *Platform) FailInit(n, code int) {
	p.mu.Lock()
	p.initFail = n
	p.initCode = code
	p.mu.Unlock()
}

// FailFirstGetBuffer makes the first GetBuffer call of the next activated
// client return err
func (p *Platform) FailFirstGetBuffer(err error) {
	p.mu.Lock()
	p.getBufferErr = err
	p.mu.Unlock()
}

func (p *Platform) Name() string { return "fake" }

var fakeEndpointInfo = device.EndpointInfo{
	ID:        "fake-0",
	Name:      "Fake Speakers",
	IsDefault: true,
}

func (p *Platform) Endpoints(_ context.Context) ([]device.EndpointInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.noDevice != 0 {
		return nil, nil
	}
	return []device.EndpointInfo{fakeEndpointInfo}, nil
}

func (p *Platform) DefaultEndpoint(_ context.Context) (device.Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errors.New("platform closed")
	}
	if consume(&p.noDevice) {
		return nil, device.ErrNoDefaultDevice
	}
	return &endpoint{p: p}, nil
}

func (p *Platform) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Activations returns how many clients were activated
func (p *Platform) Activations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Client returns the i-th activated client (1-based), or nil
func (p *Platform) Client(i int) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i < 1 || i > len(p.clients) {
		return nil
	}
	return p.clients[i-1]
}

// Latest returns the most recently activated client, or nil
func (p *Platform) Latest() *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.clients) == 0 {
		return nil
	}
	return p.clients[len(p.clients)-1]
}

type endpoint struct {
	p        *Platform
	released bool
}

func (e *endpoint) Info() device.EndpointInfo { return fakeEndpointInfo }

func (e *endpoint) Activate(_ context.Context) (device.Client, error) {
	p := e.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if consume(&p.activateFail) {
		return nil, errors.New("activation refused")
	}

	c := &Client{
		p:            p,
		index:        len(p.clients) + 1,
		supported:    p.supported,
		closest:      p.closest,
		mix:          p.mix,
		bufferFrames: p.bufferFrames,
		getBufferErr: p.getBufferErr,
	}
	p.getBufferErr = nil
	p.clients = append(p.clients, c)
	return c, nil
}

func (e *endpoint) Release() { e.released = true }

// Client is a fake activated audio client
type Client struct {
	p     *Platform
	index int

	mu           sync.Mutex
	supported    bool
	closest      *audio.Format
	mix          audio.Format
	bufferFrames int

	format       audio.Format
	initialized  bool
	queued       int
	region       []byte
	regionFrames int
	event        *device.Event

	started     bool
	released    bool
	invalidated bool

	paddingErr   error
	getBufferErr error
	releaseErr   error
}

// codeError carries a platform status code
type codeError int

func (e codeError) Error() string { return fmt.Sprintf("platform status %d", int(e)) }
func (e codeError) Code() int     { return int(e) }

func (c *Client) IsFormatSupported(f audio.Format) (bool, *audio.Format, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.supported {
		return true, nil, nil
	}
	if c.closest != nil {
		closest := *c.closest
		return false, &closest, nil
	}
	return false, nil, nil
}

func (c *Client) MixFormat() (audio.Format, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mix, nil
}

func (c *Client) Initialize(f audio.Format, _ time.Duration) error {
	c.p.mu.Lock()
	fail := consume(&c.p.initFail)
	code := c.p.initCode
	c.p.mu.Unlock()

	if fail {
		return codeError(code)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
	c.initialized = true
	return nil
}

func (c *Client) BufferSize() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return 0, device.ErrNotInitialized
	}
	return c.bufferFrames, nil
}

func (c *Client) RenderClient() (device.RenderClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil, device.ErrNotInitialized
	}
	return renderClient{c}, nil
}

func (c *Client) SetEventHandle(ev *device.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.event = ev
	return nil
}

func (c *Client) CurrentPadding() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.invalidated {
		return 0, device.ErrInvalidated
	}
	if err := c.paddingErr; err != nil {
		c.paddingErr = nil
		return 0, err
	}
	return c.queued, nil
}

func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.invalidated {
		return device.ErrInvalidated
	}
	c.started = true
	return nil
}

func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}

func (c *Client) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
}

func (c *Client) getBuffer(frames int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.invalidated {
		return nil, device.ErrInvalidated
	}
	if err := c.getBufferErr; err != nil {
		c.getBufferErr = nil
		return nil, err
	}
	if frames < 0 || frames > c.bufferFrames-c.queued {
		return nil, device.ErrBufferTooLarge
	}

	c.region = make([]byte, frames*c.format.FrameStride())
	// Stale contents the render loop is expected to overwrite
	for i := range c.region {
		c.region[i] = 0xAA
	}
	c.regionFrames = frames
	return c.region, nil
}

func (c *Client) releaseBuffer(frames int) error {
	c.mu.Lock()
	if c.invalidated {
		c.mu.Unlock()
		return device.ErrInvalidated
	}
	if err := c.releaseErr; err != nil {
		c.releaseErr = nil
		c.regionFrames = 0
		c.mu.Unlock()
		return err
	}
	if frames > c.regionFrames {
		c.mu.Unlock()
		return device.ErrBufferTooLarge
	}
	data := make([]byte, frames*c.format.FrameStride())
	copy(data, c.region)
	c.queued += frames
	c.regionFrames = 0
	c.mu.Unlock()

	select {
	case c.p.Submissions <- Submission{Activation: c.index, Frames: frames, Data: data}:
	default:
	}
	return nil
}

type renderClient struct {
	c *Client
}

func (r renderClient) GetBuffer(frames int) ([]byte, error) { return r.c.getBuffer(frames) }
func (r renderClient) ReleaseBuffer(frames int) error       { return r.c.releaseBuffer(frames) }
func (r renderClient) Release()                             {}

// Index returns the 1-based activation number of the client
func (c *Client) Index() int { return c.index }

// Format returns the format the client was initialized with
func (c *Client) Format() audio.Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// Started reports whether the client is playing
func (c *Client) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Released reports whether the client was released
func (c *Client) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Tick simulates the device playing frames and signals the event
func (c *Client) Tick(frames int) {
	c.mu.Lock()
	if frames > c.queued {
		frames = c.queued
	}
	c.queued -= frames
	ev := c.event
	c.mu.Unlock()

	if ev != nil {
		ev.Set()
	}
}

// Invalidate simulates the endpoint disappearing and wakes the render loop
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.invalidated = true
	ev := c.event
	c.mu.Unlock()

	if ev != nil {
		ev.Set()
	}
}

// FailNextPadding makes the next padding query return err
func (c *Client) FailNextPadding(err error) {
	c.mu.Lock()
	c.paddingErr = err
	c.mu.Unlock()
}

// FailNextGetBuffer makes the next GetBuffer call return err
func (c *Client) FailNextGetBuffer(err error) {
	c.mu.Lock()
	c.getBufferErr = err
	c.mu.Unlock()
}

// FailNextReleaseBuffer makes the next ReleaseBuffer call return err. The
// pending region is dropped.
func (c *Client) FailNextReleaseBuffer(err error) {
	c.mu.Lock()
	c.releaseErr = err
	c.mu.Unlock()
}
