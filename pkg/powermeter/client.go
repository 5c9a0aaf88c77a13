// Package powermeter reads the instantaneous solar output register of a
// Modbus TCP power meter. Every sample is one connect/read/disconnect cycle:
// the meter link is not kept open between polls, so a meter reboot between
// ticks never wedges the reader.
package powermeter

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// DefaultPowerRegister matches the register map of the supported inverters:
// two input registers, instantaneous power in the second one.
const DefaultPowerRegister uint16 = 5029

type Reader interface {
	ReadPower() (int64, error)
}

type Instrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

type ModbusReader struct {
	client     *modbus.ModbusClient
	register   uint16
	instrument []Instrument
	logger     *zap.Logger
}

func traceLoggerInstrumentation(logger *zap.Logger) *Instrument {
	return &Instrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus call",
				zap.String("fn", fnName),
				zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

func CreateModbusReader(host string, port uint, unitId uint8, register uint16,
	timeout time.Duration, logger *zap.Logger, instrumentation *Instrument) (Reader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	if unitId > 0 {
		if err := client.SetUnitId(unitId); err != nil {
			return nil, err
		}
	}

	if register == 0 {
		register = DefaultPowerRegister
	}

	var inst []Instrument
	inst = append(inst, *traceLoggerInstrumentation(logger.With(zap.String("target", "powermeter"))))
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	return &ModbusReader{
		client:     client,
		register:   register,
		instrument: inst,
		logger:     logger,
	}, nil
}

func (r *ModbusReader) ReadPower() (int64, error) {
	if err := r.client.Open(); err != nil {
		return 0, fmt.Errorf("powermeter: connect: %w", err)
	}
	defer r.client.Close()

	regs, err := r.readRegisters(r.register, 2, modbus.INPUT_REGISTER)
	if err != nil {
		return 0, fmt.Errorf("powermeter: read registers: %w", err)
	}
	if len(regs) < 2 {
		return 0, fmt.Errorf("powermeter: short register read: got %d registers", len(regs))
	}
	return int64(regs[1]), nil
}

func (r *ModbusReader) readRegisters(addr uint16, quantity uint16, regType modbus.RegType) ([]uint16, error) {
	defer recordTimer("ReadRegisters", r.instrument)()
	return r.client.ReadRegisters(addr, quantity, regType)
}

func recordTimer(name string, instrument []Instrument) func() {
	if instrument == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}
