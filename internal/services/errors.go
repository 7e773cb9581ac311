package services

import "errors"

var (
	ErrUnauthenticated    = errors.New("未认证或令牌无效")
	ErrUserAlreadyExists  = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("无效的邮箱或密码")
	ErrUserInactive       = errors.New("用户已停用")
	ErrUserNotFound       = errors.New("用户未找到")
	ErrPermissionDenied   = errors.New("没有权限执行此操作")

	ErrLocationExists = errors.New("地点已存在")

	ErrFriendshipExists    = errors.New("好友关系已存在")
	ErrFriendLinkNotFound  = errors.New("好友关系不存在")
	ErrNotFriendLinkTarget = errors.New("只有被请求方可以修改审批状态")

	ErrScheduleExists   = errors.New("用户已有课表")
	ErrScheduleNotFound = errors.New("课表不存在")
	ErrLessonNotFound   = errors.New("课程不存在")
)
