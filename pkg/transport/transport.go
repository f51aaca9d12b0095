// Package transport 设备查询层：单值查询、树遍历，并返回分类后的失败。
// 超时和重试由 transport 自己负责
package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"strconv"
	"strings"
)

var (
	ErrTimeout     = errors.New("query timed out")
	ErrUnreachable = errors.New("device unreachable")
	ErrProtocol    = errors.New("protocol error")
	ErrNonNumeric  = errors.New("non-numeric value")
	ErrCanceled    = errors.New("query canceled")
)

// FailureKind 查询失败分类，用作失败计数的 reason 标签
type FailureKind string

const (
	KindTimeout     FailureKind = "timeout"
	KindUnreachable FailureKind = "unreachable"
	KindProtocol    FailureKind = "protocol"
	KindNonNumeric  FailureKind = "non_numeric"
	KindCanceled    FailureKind = "canceled"
)

// Endpoint 设备地址
type Endpoint struct {
	Address   string
	Port      uint16
	Community string
}

// Variable 一个 (OID, 原始值) 对
type Variable struct {
	OID   string
	Value any
}

// WalkFunc 按顺序接收遍历到的变量，返回 error 即停止遍历
type WalkFunc func(Variable) error

// Transport 设备查询接口
type Transport interface {
	// Get 读取单个 OID
	Get(ctx context.Context, ep Endpoint, oid string) (Variable, error)
	// Walk 遍历 baseOID 下的全部 OID；出错前可能已经回调过部分变量
	Walk(ctx context.Context, ep Endpoint, baseOID string, fn WalkFunc) error
}

// Failure 已分类的传输错误
type Failure struct {
	Kind    FailureKind
	Address string
	OID     string
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", f.Address, f.OID, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is 匹配对应分类的哨兵错误
func (f *Failure) Is(target error) bool {
	return target == kindSentinel(f.Kind)
}

// NewFailure 对 err 分类并附上设备和 OID
func NewFailure(address, oid string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: Classify(err), Address: address, OID: oid, Err: err}
}

func kindSentinel(k FailureKind) error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindUnreachable:
		return ErrUnreachable
	case KindNonNumeric:
		return ErrNonNumeric
	case KindCanceled:
		return ErrCanceled
	default:
		return ErrProtocol
	}
}

// Classify 把任意错误映射为 FailureKind
func Classify(err error) FailureKind {
	var f *Failure
	var netErr net.Error
	switch {
	case errors.As(err, &f):
		return f.Kind
	case errors.Is(err, ErrNonNumeric):
		return KindNonNumeric
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrUnreachable):
		return KindUnreachable
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindUnreachable
	case err != nil && strings.Contains(err.Error(), "timeout"):
		return KindTimeout
	default:
		return KindProtocol
	}
}

// Float 把原始值转换为 float64，非数值返回 ErrNonNumeric
func Float(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return finite(float64(n))
	case float64:
		return finite(n)
	case *big.Int:
		if n == nil {
			break
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, nil
	case []byte:
		return parseFloat(string(n))
	case string:
		return parseFloat(n)
	}
	return 0, fmt.Errorf("%w: %T", ErrNonNumeric, v)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumeric, s)
	}
	return finite(f)
}

// finite 拒绝 NaN/Inf，设备返回的 "NaN"、"Inf" 等同于非数值
func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonNumeric, f)
	}
	return f, nil
}
