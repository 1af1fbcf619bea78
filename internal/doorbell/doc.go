// Package doorbell turns the doorbell button into ring events.
//
// A Detector samples the button once per control-loop tick. On a press it
// starts the ring pattern on the buzzer and publishes "on" to the ring
// topic; on release it silences the buzzer and publishes "off". Nothing
// happens while the button stays in the same state.
//
// Hardware access goes through the Linux sysfs interfaces: the button is a
// GPIO value file and the buzzer a PWM channel. Simulated implementations
// of both are provided for development hosts.
package doorbell
