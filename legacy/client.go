package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/calehh/hac-gov/codec"
	"github.com/calehh/hac-gov/types"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/rpc/client/http"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
)

var (
	ErrUnsupportedArg = errors.New("unsupported legacy argument")
	ErrRemoteFailed   = errors.New("legacy call failed")
)

// Caller invokes a named operation on the predecessor deployment. A nil reply
// means the remote returned nothing.
type Caller interface {
	Call(ctx context.Context, method string, args ...any) ([]byte, error)
}

// EncodeArgs encodes positional arguments as a tagged list.
func EncodeArgs(args ...any) ([]byte, error) {
	s := codec.NewVmValueSink()
	s.Envelope(uint32(len(args)))
	for _, arg := range args {
		switch v := arg.(type) {
		case types.Hash:
			s.H256(v)
		case types.Address:
			s.Address(v)
		case []byte:
			s.ByteArray(v)
		case string:
			s.Str(v)
		case bool:
			s.Bool(v)
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedArg, arg)
		}
	}
	return s.Bytes(), nil
}

type abciQuerier interface {
	ABCIQuery(ctx context.Context, path string, data cmtbytes.HexBytes) (*ctypes.ResultABCIQuery, error)
}

// RPCCaller reaches the legacy contract through an ABCI query on
// /<contract>/<method>.
type RPCCaller struct {
	logger   cmtlog.Logger
	cli      abciQuerier
	contract string
	timeout  time.Duration
}

// NewRPCCaller bounds every call by timeout; zero leaves calls unbounded.
func NewRPCCaller(url string, contract string, timeout time.Duration, logger cmtlog.Logger) (c *RPCCaller, err error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, err
	}
	return newRPCCaller(cli, contract, timeout, logger), nil
}

func newRPCCaller(cli abciQuerier, contract string, timeout time.Duration, logger cmtlog.Logger) *RPCCaller {
	return &RPCCaller{
		logger:   logger.With("module", "legacyRPC"),
		cli:      cli,
		contract: strings.Trim(contract, "/"),
		timeout:  timeout,
	}
}

func (c *RPCCaller) Call(ctx context.Context, method string, args ...any) ([]byte, error) {
	data, err := EncodeArgs(args...)
	if err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	path := fmt.Sprintf("/%s/%s", c.contract, method)
	res, err := c.cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("%w: %s code %d %s", ErrRemoteFailed, path, res.Response.Code, res.Response.Log)
	}
	if len(res.Response.Value) == 0 {
		return nil, nil
	}
	return res.Response.Value, nil
}

// MockCaller serves canned replies keyed by method and encoded arguments.
type MockCaller struct {
	mtx     sync.Mutex
	replies map[string][]byte
	fails   map[string]error
	calls   []string
}

func NewMockCaller() *MockCaller {
	return &MockCaller{replies: make(map[string][]byte), fails: make(map[string]error)}
}

func mockKey(method string, args ...any) (string, error) {
	dat, err := EncodeArgs(args...)
	if err != nil {
		return "", err
	}
	return method + "/" + string(dat), nil
}

// Reply registers the reply of method called with args.
func (m *MockCaller) Reply(reply []byte, method string, args ...any) {
	key, err := mockKey(method, args...)
	if err != nil {
		panic(err)
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.replies[key] = reply
}

// Fail makes method called with args return err. A nil err clears it.
func (m *MockCaller) Fail(err error, method string, args ...any) {
	key, err1 := mockKey(method, args...)
	if err1 != nil {
		panic(err1)
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err == nil {
		delete(m.fails, key)
		return
	}
	m.fails[key] = err
}

func (m *MockCaller) Call(ctx context.Context, method string, args ...any) ([]byte, error) {
	key, err := mockKey(method, args...)
	if err != nil {
		return nil, err
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.calls = append(m.calls, method)
	if err := m.fails[key]; err != nil {
		return nil, err
	}
	return m.replies[key], nil
}

// Calls lists the methods invoked so far.
func (m *MockCaller) Calls() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]string{}, m.calls...)
}
