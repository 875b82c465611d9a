/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDeployer implements Deployer for testing
type MockDeployer struct {
	mock.Mock
}

func (m *MockDeployer) HasStack(ctx context.Context, stackName string) (bool, error) {
	args := m.Called(ctx, stackName)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeployer) CreateAndWaitForChangeSet(ctx context.Context, req *Request) (*ChangeSet, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChangeSet), args.Error(1)
}

func (m *MockDeployer) ExecuteChangeSet(ctx context.Context, cs *ChangeSet, disableRollback bool) error {
	args := m.Called(ctx, cs, disableRollback)
	return args.Error(0)
}

func (m *MockDeployer) DeleteChangeSet(ctx context.Context, cs *ChangeSet) error {
	args := m.Called(ctx, cs)
	return args.Error(0)
}

func (m *MockDeployer) WaitForExecute(ctx context.Context, input ExecuteWaitInput) (*Result, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockDeployer) Sync(ctx context.Context, req *Request, mode FailureMode, maxWaitMinutes int) (*Result, error) {
	args := m.Called(ctx, req, mode, maxWaitMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockDeployer) RecoverFailedStack(ctx context.Context, stackName string) error {
	args := m.Called(ctx, stackName)
	return args.Error(0)
}

func (m *MockDeployer) DeleteStack(ctx context.Context, stackName string) error {
	args := m.Called(ctx, stackName)
	return args.Error(0)
}

func (m *MockDeployer) ValidateTemplate(ctx context.Context, templateBody string) error {
	args := m.Called(ctx, templateBody)
	return args.Error(0)
}

// MockTemplateUploader implements TemplateUploader for testing
type MockTemplateUploader struct {
	mock.Mock
}

func (m *MockTemplateUploader) Upload(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

var (
	_ Deployer         = (*MockDeployer)(nil)
	_ TemplateUploader = (*MockTemplateUploader)(nil)
)
