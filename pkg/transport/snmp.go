package transport

import (
	"context"
	"fmt"

	"github.com/gosnmp/gosnmp"

	"github.com/pdu-collector/pkg/config"
)

// SNMP 基于 gosnmp 的 Transport，每次调用单独建连
type SNMP struct {
	cfg config.SNMPConfig
}

var _ Transport = (*SNMP)(nil)

// NewSNMP 创建 SNMP transport；Endpoint 未设置的端口、community 使用 cfg
func NewSNMP(cfg config.SNMPConfig) *SNMP {
	return &SNMP{cfg: cfg}
}

func (s *SNMP) client(ctx context.Context, ep Endpoint) (*gosnmp.GoSNMP, error) {
	g := &gosnmp.GoSNMP{
		Target:         ep.Address,
		Port:           s.cfg.Port,
		Community:      s.cfg.Community,
		Version:        gosnmp.Version2c,
		Timeout:        s.cfg.Timeout,
		Retries:        s.cfg.Retries,
		MaxRepetitions: s.cfg.MaxRepetitions,
		Context:        ctx,
	}
	if s.cfg.Version == "1" {
		g.Version = gosnmp.Version1
	}
	if ep.Port != 0 {
		g.Port = ep.Port
	}
	if ep.Community != "" {
		g.Community = ep.Community
	}
	if err := g.Connect(); err != nil {
		return nil, contextErr(ctx, fmt.Errorf("%w: %v", ErrUnreachable, err))
	}
	return g, nil
}

// Get 实现 Transport
func (s *SNMP) Get(ctx context.Context, ep Endpoint, oid string) (Variable, error) {
	g, err := s.client(ctx, ep)
	if err != nil {
		return Variable{}, NewFailure(ep.Address, oid, err)
	}
	defer g.Conn.Close()

	pkt, err := g.Get([]string{oid})
	if err != nil {
		return Variable{}, NewFailure(ep.Address, oid, contextErr(ctx, err))
	}
	if pkt.Error != gosnmp.NoError {
		return Variable{}, NewFailure(ep.Address, oid, fmt.Errorf("%w: %s", ErrProtocol, pkt.Error))
	}
	if len(pkt.Variables) == 0 {
		return Variable{}, NewFailure(ep.Address, oid, fmt.Errorf("%w: empty response", ErrProtocol))
	}
	pdu := pkt.Variables[0]
	if missing(pdu.Type) {
		return Variable{}, NewFailure(ep.Address, oid, fmt.Errorf("%w: %s", ErrProtocol, pdu.Type))
	}
	return Variable{OID: pdu.Name, Value: pdu.Value}, nil
}

// Walk 实现 Transport，v1 用 GETNEXT，v2c 用 GETBULK
func (s *SNMP) Walk(ctx context.Context, ep Endpoint, baseOID string, fn WalkFunc) error {
	g, err := s.client(ctx, ep)
	if err != nil {
		return NewFailure(ep.Address, baseOID, err)
	}
	defer g.Conn.Close()

	walkFn := func(pdu gosnmp.SnmpPDU) error {
		if missing(pdu.Type) {
			return nil
		}
		return fn(Variable{OID: pdu.Name, Value: pdu.Value})
	}
	if g.Version == gosnmp.Version1 {
		err = g.Walk(baseOID, walkFn)
	} else {
		err = g.BulkWalk(baseOID, walkFn)
	}
	if err != nil {
		return NewFailure(ep.Address, baseOID, contextErr(ctx, err))
	}
	return nil
}

func missing(t gosnmp.Asn1BER) bool {
	return t == gosnmp.NoSuchObject || t == gosnmp.NoSuchInstance || t == gosnmp.EndOfMibView || t == gosnmp.Null
}

// contextErr ctx 已结束时优先返回 ctx 的错误，取消不会被归为协议错误
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}
