/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package resolve

import (
	"github.com/stretchr/testify/mock"
)

// MockTemplateResolver implements TemplateResolver for testing
type MockTemplateResolver struct {
	mock.Mock
}

func (m *MockTemplateResolver) Resolve(templateURI string, variables map[string]any) (string, error) {
	args := m.Called(templateURI, variables)
	return args.String(0), args.Error(1)
}

var _ TemplateResolver = (*MockTemplateResolver)(nil)
