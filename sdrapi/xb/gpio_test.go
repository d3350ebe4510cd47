package xb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
	"github.com/radiokit-dev/radiokit/sdrapi/driver/drivertest"
)

func TestMask(t *testing.T) {
	assert.Equal(t, uint32(0x00000001), Mask(1))
	assert.Equal(t, uint32(0x00000010), Mask(5))
	assert.Equal(t, uint32(0x80000000), Mask(32))
}

func TestOutputWriteTouchesOnlyOwnBit(t *testing.T) {
	fake := drivertest.New()
	dev := sdrapi.NewSolo(fake, "s0")

	out, err := NewPin(dev, 5).Output()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00000010), fake.GPIODir())

	require.NoError(t, out.Write(High))
	assert.Equal(t, uint32(0x00000010), fake.GPIO())

	// neighbouring bits survive a write
	fake.SetGPIO(0xffffffef)
	require.NoError(t, out.Write(High))
	assert.Equal(t, uint32(0xffffffff), fake.GPIO())
	require.NoError(t, out.Write(Low))
	assert.Equal(t, uint32(0xffffffef), fake.GPIO())
}

func TestInputRead(t *testing.T) {
	fake := drivertest.New()
	dev := sdrapi.NewSolo(fake, "s0")
	fake.SetGPIO(0x00000010)

	pin5, err := NewPin(dev, 5).Input()
	require.NoError(t, err)
	pin6, err := NewPin(dev, 6).Input()
	require.NoError(t, err)

	level, err := pin5.Read()
	require.NoError(t, err)
	assert.Equal(t, High, level)

	level, err = pin6.Read()
	require.NoError(t, err)
	assert.Equal(t, Low, level)
}

func TestDirectionConversionsAreMasked(t *testing.T) {
	fake := drivertest.New()
	dev := sdrapi.NewSolo(fake, "s0")

	_, err := NewPin(dev, 3).Output()
	require.NoError(t, err)
	_, err = NewPin(dev, 7).Output()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00000044), fake.GPIODir())

	_, err = NewPin(dev, 3).Input()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00000040), fake.GPIODir())
}

func TestDirectionWriteFailure(t *testing.T) {
	fake := drivertest.New()
	fake.FailOnce("gpio_dir_masked_write", driver.StatusIO)
	dev := sdrapi.NewSolo(fake, "s0")

	_, err := NewPin(dev, 1).Input()
	var drvErr *sdrapi.DriverError
	require.ErrorAs(t, err, &drvErr)
	assert.Equal(t, driver.StatusIO, drvErr.Status)
}

func TestRoundTrip(t *testing.T) {
	fake := drivertest.New()
	dev := sdrapi.NewSolo(fake, "s0")

	for num := uint8(1); num <= 32; num++ {
		out, err := NewPin(dev, num).Output()
		require.NoError(t, err)
		require.NoError(t, out.Write(High))
		assert.Equal(t, Mask(num), fake.GPIO()&Mask(num))
		require.NoError(t, out.Write(Low))
		assert.Equal(t, uint32(0), fake.GPIO())
	}
}

func TestXB200PinSet(t *testing.T) {
	fake := drivertest.New()
	dev := sdrapi.NewSolo(fake, "s0")

	pins, err := XB200(dev)
	require.NoError(t, err)
	assert.Equal(t, uint8(10), pins.J7_1.Number())
	assert.Equal(t, uint8(18), pins.J13_2.Number())
	assert.Equal(t, uint8(32), pins.J16_2.Number())

	out, err := pins.J7_1.Output()
	require.NoError(t, err)
	require.NoError(t, out.Write(High))
	assert.Equal(t, Mask(10), fake.GPIO())
}

func TestXB100PinSet(t *testing.T) {
	dev := sdrapi.NewSolo(drivertest.New(), "s0")

	pins, err := XB100(dev)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), pins.J2_3.Number())
	assert.Equal(t, uint8(24), pins.LedD8.Number())
}
