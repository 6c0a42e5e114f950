package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// MockDriver mocks schemas.Driver.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Click(ctx context.Context, loc schemas.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockDriver) DoubleClick(ctx context.Context, loc schemas.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockDriver) Press(ctx context.Context, loc schemas.Locator, key string) error {
	return m.Called(ctx, loc, key).Error(0)
}

func (m *MockDriver) Fill(ctx context.Context, loc schemas.Locator, text string) error {
	return m.Called(ctx, loc, text).Error(0)
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

var testObservation = schemas.Observation{
	Mode: schemas.ObservationText,
	Text: "[#0] Submit [$1] search",
	IDs: map[int]schemas.Locator{
		0: `[data-speckled-id="0"]`,
		1: `[data-speckled-id="1"]`,
	},
}

// newTestDispatcher records settle waits instead of sleeping.
func newTestDispatcher(t *testing.T, opts Options) (*Dispatcher, *[]time.Duration) {
	d := New(zaptest.NewLogger(t), opts)
	var waits []time.Duration
	d.sleep = func(_ context.Context, dur time.Duration) error {
		waits = append(waits, dur)
		return nil
	}
	return d, &waits
}

func TestDispatch_Primitives(t *testing.T) {
	ctx := context.Background()
	loc0 := testObservation.IDs[0]
	loc1 := testObservation.IDs[1]

	tests := []struct {
		name  string
		inst  protocol.Instruction
		setup func(m *MockDriver)
	}{
		{
			name:  "click",
			inst:  protocol.Click{ID: 0},
			setup: func(m *MockDriver) { m.On("Click", mock.Anything, loc0).Return(nil).Once() },
		},
		{
			name:  "double click",
			inst:  protocol.Click{ID: 0, Double: true},
			setup: func(m *MockDriver) { m.On("DoubleClick", mock.Anything, loc0).Return(nil).Once() },
		},
		{
			name:  "key input",
			inst:  protocol.KeyInput{ID: 1, Key: "Escape"},
			setup: func(m *MockDriver) { m.On("Press", mock.Anything, loc1, "Escape").Return(nil).Once() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := new(MockDriver)
			tt.setup(driver)
			d, waits := newTestDispatcher(t, Options{SettleDelay: 500 * time.Millisecond, SubmitAfterFill: true})

			require.NoError(t, d.Dispatch(ctx, driver, tt.inst, testObservation))
			driver.AssertExpectations(t)
			assert.Equal(t, []time.Duration{500 * time.Millisecond}, *waits)
		})
	}
}

func TestDispatch_TextInputFillsThenSubmits(t *testing.T) {
	loc := testObservation.IDs[1]
	driver := new(MockDriver)

	var order []string
	driver.On("Fill", mock.Anything, loc, "hello world").
		Run(func(mock.Arguments) { order = append(order, "fill") }).Return(nil).Once()
	driver.On("Press", mock.Anything, loc, EnterKey).
		Run(func(mock.Arguments) { order = append(order, "press") }).Return(nil).Once()

	d, waits := newTestDispatcher(t, Options{SettleDelay: time.Second, SubmitAfterFill: true})
	require.NoError(t, d.Dispatch(context.Background(), driver, protocol.TextInput{ID: 1, Text: "hello world"}, testObservation))

	driver.AssertExpectations(t)
	assert.Equal(t, []string{"fill", "press"}, order)
	assert.Len(t, *waits, 1, "settle delay is applied once per instruction")
}

func TestDispatch_TextInputWithoutSubmit(t *testing.T) {
	loc := testObservation.IDs[1]
	driver := new(MockDriver)
	driver.On("Fill", mock.Anything, loc, "abc").Return(nil).Once()

	d, _ := newTestDispatcher(t, Options{SubmitAfterFill: false})
	require.NoError(t, d.Dispatch(context.Background(), driver, protocol.TextInput{ID: 1, Text: "abc"}, testObservation))

	driver.AssertExpectations(t)
	driver.AssertNotCalled(t, "Press", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_UnknownElementID(t *testing.T) {
	driver := new(MockDriver)
	d, waits := newTestDispatcher(t, Options{SettleDelay: time.Second})

	err := d.Dispatch(context.Background(), driver, protocol.Click{ID: 42}, testObservation)

	var unknown *UnknownElementIDError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 42, unknown.ID)
	assert.Equal(t, 2, unknown.Known)
	assert.Empty(t, driver.Calls, "no primitive may run for an unknown id")
	assert.Empty(t, *waits)
}

func TestDispatch_EmptyObservation(t *testing.T) {
	driver := new(MockDriver)
	d, _ := newTestDispatcher(t, Options{})

	err := d.Dispatch(context.Background(), driver, protocol.KeyInput{ID: 0, Key: "Enter"}, schemas.Observation{Mode: schemas.ObservationText})

	var unknown *UnknownElementIDError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, driver.Calls)
}

func TestDispatch_DriverFailure(t *testing.T) {
	loc := testObservation.IDs[1]
	cause := errors.New("element is not interactable")

	t.Run("fill failure skips submit", func(t *testing.T) {
		driver := new(MockDriver)
		driver.On("Fill", mock.Anything, loc, "x").Return(cause).Once()
		d, waits := newTestDispatcher(t, Options{SettleDelay: time.Second, SubmitAfterFill: true})

		err := d.Dispatch(context.Background(), driver, protocol.TextInput{ID: 1, Text: "x"}, testObservation)

		var failed *DispatchFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "fill", failed.Primitive)
		assert.Equal(t, ErrCodeNotInteractable, failed.Code)
		assert.Equal(t, protocol.TextInput{ID: 1, Text: "x"}, failed.Instruction)
		assert.ErrorIs(t, err, cause)
		driver.AssertNotCalled(t, "Press", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, *waits)
	})

	t.Run("submit failure is reported", func(t *testing.T) {
		driver := new(MockDriver)
		driver.On("Fill", mock.Anything, loc, "x").Return(nil).Once()
		driver.On("Press", mock.Anything, loc, EnterKey).Return(errors.New("boom")).Once()
		d, _ := newTestDispatcher(t, Options{SubmitAfterFill: true})

		err := d.Dispatch(context.Background(), driver, protocol.TextInput{ID: 1, Text: "x"}, testObservation)

		var failed *DispatchFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "press", failed.Primitive)
		assert.Equal(t, ErrCodeExecutionFailure, failed.Code)
	})
}

func TestDispatch_ActionTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	loc := testObservation.IDs[0]
	driver := new(MockDriver)
	driver.On("Click", mock.Anything, loc).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(context.DeadlineExceeded).Once()

	d, _ := newTestDispatcher(t, Options{ActionTimeout: 20 * time.Millisecond})
	err := d.Dispatch(context.Background(), driver, protocol.Click{ID: 0}, testObservation)

	var failed *DispatchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, ErrCodeTimeout, failed.Code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatch_CompleteIsRejected(t *testing.T) {
	driver := new(MockDriver)
	d, _ := newTestDispatcher(t, Options{})

	err := d.Dispatch(context.Background(), driver, protocol.Complete{Success: true}, testObservation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
	assert.Empty(t, driver.Calls)
}

func TestSleepContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{context.DeadlineExceeded, ErrCodeTimeout},
		{context.Canceled, ErrCodeCanceled},
		{errors.New("could not find node with given id"), ErrCodeElementNotFound},
		{errors.New("node is not visible"), ErrCodeNotInteractable},
		{errors.New("net::ERR_CONNECTION_REFUSED"), ErrCodeNavigation},
		{errors.New("something else"), ErrCodeExecutionFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.err), tt.err.Error())
	}
}
