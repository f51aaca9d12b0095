// Package transporttest 按脚本响应的内存 transport，供单测使用
package transporttest

import (
	"context"
	"sync"
	"time"

	"github.com/pdu-collector/pkg/transport"
)

// Walk 一次树遍历的脚本响应
type Walk struct {
	Vars []transport.Variable
	// Err 在 Vars 回调完之后返回
	Err error
	// Delay 开始前等待，ctx 取消则提前结束
	Delay time.Duration
	// Block 一直阻塞到 ctx 结束
	Block bool
}

// Get 一次单值查询的脚本响应
type Get struct {
	Value any
	Err   error
}

// Fake 实现 transport.Transport。未配置的 walk 返回空树，未配置的 get 返回 ErrProtocol
type Fake struct {
	mu    sync.Mutex
	walks map[string]Walk
	gets  map[string]Get
	calls map[string]int
}

var _ transport.Transport = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		walks: make(map[string]Walk),
		gets:  make(map[string]Get),
		calls: make(map[string]int),
	}
}

func key(address, oid string) string { return address + "|" + oid }

func (f *Fake) SetWalk(address, baseOID string, w Walk) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.walks[key(address, baseOID)] = w
}

func (f *Fake) SetGet(address, oid string, g Get) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[key(address, oid)] = g
}

// Calls 返回 address/oid 被查询的次数
func (f *Fake) Calls(address, oid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key(address, oid)]
}

func (f *Fake) Get(ctx context.Context, ep transport.Endpoint, oid string) (transport.Variable, error) {
	f.mu.Lock()
	f.calls[key(ep.Address, oid)]++
	g, ok := f.gets[key(ep.Address, oid)]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return transport.Variable{}, transport.NewFailure(ep.Address, oid, err)
	}
	if !ok {
		return transport.Variable{}, transport.NewFailure(ep.Address, oid, transport.ErrProtocol)
	}
	if g.Err != nil {
		return transport.Variable{}, transport.NewFailure(ep.Address, oid, g.Err)
	}
	return transport.Variable{OID: oid, Value: g.Value}, nil
}

func (f *Fake) Walk(ctx context.Context, ep transport.Endpoint, baseOID string, fn transport.WalkFunc) error {
	f.mu.Lock()
	f.calls[key(ep.Address, baseOID)]++
	w := f.walks[key(ep.Address, baseOID)]
	f.mu.Unlock()

	if w.Block {
		<-ctx.Done()
		return transport.NewFailure(ep.Address, baseOID, ctx.Err())
	}
	if w.Delay > 0 {
		timer := time.NewTimer(w.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return transport.NewFailure(ep.Address, baseOID, ctx.Err())
		}
	}
	for _, v := range w.Vars {
		if err := fn(v); err != nil {
			return transport.NewFailure(ep.Address, baseOID, err)
		}
	}
	if w.Err != nil {
		return transport.NewFailure(ep.Address, baseOID, w.Err)
	}
	return nil
}
