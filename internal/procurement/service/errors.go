package service

import "errors"

// 校验类错误：调用方可修正输入后重试
var (
	ErrEmptyRequest     = errors.New("request has no items")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrItemNotOnOrder   = errors.New("item not on purchase order")
	ErrItemNotInRequest = errors.New("item not in source request")
	ErrQuantityExceeded = errors.New("quantity exceeds remaining on order")
)

// 授权类错误：换更高权限用户重试，原样重试无意义
var (
	ErrUnauthorized          = errors.New("not authorized")
	ErrApprovalLimitExceeded = errors.New("amount exceeds approval limit")
)

// 状态类错误：调用方与实际状态脱节
var (
	ErrAlreadyLinked     = errors.New("request already linked to a purchase order")
	ErrInvalidTransition = errors.New("invalid status transition")
)
