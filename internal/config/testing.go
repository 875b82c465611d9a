/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package config

import (
	"github.com/stretchr/testify/mock"
)

// MockProvider implements Provider for testing
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Environment(name string) (*Environment, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Environment), args.Error(1)
}

func (m *MockProvider) ListEnvironments() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ Provider = (*MockProvider)(nil)
