package models

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// ValidationError 输入不合法（名称长度、版本枚举、分页参数等）
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// PreconditionError 前置条件不满足（分镜索引越界、未选中图片等）
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

// BackendError 外部生成服务调用失败或超时
type BackendError struct {
	Msg string
	Err error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *BackendError) Unwrap() error { return e.Err }
