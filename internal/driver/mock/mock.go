// File: internal/driver/mock/mock.go

// Package mock provides a testify mock of driver.Driver.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/rp1/internal/driver"
)

// Driver mocks driver.Driver.
type Driver struct {
	mock.Mock
}

var _ driver.Driver = (*Driver)(nil)

func (m *Driver) Locate(ctx context.Context, selector string) (driver.ElementHandle, error) {
	args := m.Called(ctx, selector)
	return args.Get(0), args.Error(1)
}

func (m *Driver) AwaitVisible(ctx context.Context, el driver.ElementHandle) error {
	args := m.Called(ctx, el)
	return args.Error(0)
}

func (m *Driver) Click(ctx context.Context, el driver.ElementHandle) error {
	args := m.Called(ctx, el)
	return args.Error(0)
}

func (m *Driver) SendKeys(ctx context.Context, el driver.ElementHandle, text string) error {
	args := m.Called(ctx, el, text)
	return args.Error(0)
}

func (m *Driver) GetAttribute(ctx context.Context, el driver.ElementHandle, name string) (string, error) {
	args := m.Called(ctx, el, name)
	return args.String(0), args.Error(1)
}

// Element is a convenience handle for tests.
type Element struct {
	Selector string
}
