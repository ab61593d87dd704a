// internal/service/cart/domain/lock.go
package domain

// LockKey 返回某购物车的序列化域标识。
// 所有对同一购物车的变更操作（增删改行项目、完成结账）共用这一个锁 key，
// "结账进行中"和"还在改购物车"因此互斥，这是刻意的简化。
func LockKey(cartID string) string {
	return "cart:" + cartID
}
