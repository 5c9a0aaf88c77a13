package mqtt

import (
	"testing"

	"sunswitch/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTopic(t *testing.T) {
	topic, err := CheckTopic("SunSwitch_1")
	require.NoError(t, err)
	assert.Equal(t, "sunswitch_1", topic)

	_, err = CheckTopic("bad/topic")
	assert.Error(t, err)

	_, err = CheckTopic("")
	assert.Error(t, err)
}

func TestTopicLayout(t *testing.T) {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "sunswitch",
		},
	}
	client := CreateMQTTClient(cfg, OptsFromConfig(cfg), nil)

	assert.Equal(t, "sunswitch/bridge/state", client.BridgeStateTopic())
	assert.Equal(t, "sunswitch/sensor/solar_power/state", client.SensorStateTopic("solar_power"))
	assert.Equal(t, "sunswitch/binary_sensor/relay_script_owned/state", client.BinarySensorStateTopic("relay_script_owned"))
	assert.Equal(t, "sunswitch/switch/lamp/state", client.SwitchStateTopic("lamp"))
}

func TestOptsFromConfigLastWill(t *testing.T) {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			Username:  "user",
			Password:  "pass",
			BaseTopic: "sunswitch",
		},
	}
	opts := OptsFromConfig(cfg)

	assert.True(t, opts.WillEnabled)
	assert.True(t, opts.WillRetained)
	assert.Equal(t, "sunswitch/bridge/state", opts.WillTopic)
	assert.Equal(t, []byte(MQTT_PAYLOAD_OFFLINE), opts.WillPayload)
	assert.Equal(t, "user", opts.Username)
}
