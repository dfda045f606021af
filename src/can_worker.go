package main

import (
	"context"
	"log"
	"strconv"

	"go.einride.tech/can/pkg/socketcan"
)

// canWorker reads frames from a SocketCAN interface, decodes the configured
// signals, and forwards them as sensor readings under their logical topics.
// It is the drop-in alternative to mqttWorker for vehicles where throttle and
// speed come straight off the bus.
func canWorker(
	ctx context.Context,
	iface string,
	signals []CANSignalConfig,
	msgChan chan<- SensorMessage,
) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		log.Printf("CAN worker: dial %s: %v\n", iface, err)
		return
	}
	defer conn.Close()

	// Receive blocks on the socket; closing the connection on cancellation
	// unblocks it.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Printf("CAN worker: listening on %s\n", iface)

	recv := socketcan.NewReceiver(conn)
	for recv.Receive() {
		frame := recv.Frame()

		for _, sig := range signals {
			if uint32(frame.ID) != sig.FrameID {
				continue
			}
			if (sig.StartBit+sig.Length+7)/8 > int(frame.Length) {
				log.Printf("CAN worker: frame 0x%X too short for signal at bit %d\n", frame.ID, sig.StartBit)
				continue
			}

			value := decodeSignal(frame.Data[:frame.Length], sig)
			msg := SensorMessage{
				Topic: sig.Topic,
				Value: strconv.FormatFloat(value, 'f', -1, 64),
			}
			select {
			case msgChan <- msg:
			case <-ctx.Done():
				return
			}
		}
	}

	if ctx.Err() == nil {
		log.Printf("CAN worker: receive loop ended: %v\n", recv.Err())
	}
	log.Println("CAN worker stopped")
}

// decodeSignal extracts a little-endian signal from CAN frame data and
// applies its factor and offset.
func decodeSignal(data []byte, sig CANSignalConfig) float64 {
	var raw uint64
	for i := 0; i < sig.Length; i++ {
		bit := sig.StartBit + i
		if data[bit/8]&(1<<(bit%8)) != 0 {
			raw |= 1 << i
		}
	}

	value := int64(raw)
	if sig.Signed && raw&(1<<(sig.Length-1)) != 0 {
		// Sign-extend
		value = int64(raw | ^uint64(0)<<sig.Length)
	}

	return float64(value)*sig.Factor + sig.Offset
}
