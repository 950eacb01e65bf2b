// Package mqtt provides MQTT connectivity for the Alpha 2 mock.
//
// When enabled, the mock mirrors its state onto a broker and accepts
// commands from it:
//
//	Store commit ──► alpha2/state/heatarea/{nr}   (retained JSON)
//	             └─► alpha2/state/iodevice/{id}   (retained JSON)
//	Diagnostics  ──► alpha2/diagnostics
//	alpha2/command ──► command.Processor (same path as POST /data/changes.xml)
//	LWT / Close  ──► alpha2/status                (retained online/offline)
//
// The prefix comes from mqtt.topic_prefix. The client reconnects with
// exponential backoff and restores its subscriptions.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	client.PublishRetained(topics.HeatAreaState(1), payload)
package mqtt
