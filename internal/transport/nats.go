package transport

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSSource implements Source over a NATS subject. Reconnection is handled
// by the NATS client itself; handlers map its connection events onto the
// manager's state vocabulary so downstream consumers see a single model.
type NATSSource struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	logger  *logrus.Logger
}

// NewNATSSource connects to the NATS server and prepares a source for the
// given subject. Message payloads are passed through verbatim; the pipeline
// decodes them exactly like websocket frames.
func NewNATSSource(url, subject string, logger *logrus.Logger, onState StateFunc) (*NATSSource, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("NATS connection to %s lost: %v", url, err)
			if onState != nil {
				onState(StateReconnectPending)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Infof("NATS connection to %s restored", url)
			if onState != nil {
				onState(StateConnected)
			}
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	logger.Infof("Connected to NATS server at %s", url)
	if onState != nil {
		onState(StateConnected)
	}
	return &NATSSource{nc: nc, subject: subject, logger: logger}, nil
}

// Connect subscribes to the subject and invokes onRecord for each message.
func (s *NATSSource) Connect(onRecord RecordFunc) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		onRecord(msg.Data)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	s.logger.Infof("Subscribed to '%s'", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *NATSSource) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
