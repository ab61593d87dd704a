// internal/locking/zookeeper.go
package locking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"

	"vernont/internal/pkg/apperr"
)

const lockRoot = "/vernont_locks" // 所有分布式锁的根节点

// ZkLocker 基于 ZooKeeper 临时顺序节点实现 Locker。
// 临时节点随会话消亡，天然具备"持有者崩溃即释放"的语义；
// ttl 参数在该实现里由会话超时兜底，不单独计时。
type ZkLocker struct {
	conn *zk.Conn
}

func NewZkLocker(conn *zk.Conn) *ZkLocker {
	return &ZkLocker{conn: conn}
}

func (l *ZkLocker) Acquire(ctx context.Context, key string, wait, ttl time.Duration) (Handle, error) {
	lockPath := lockRoot + "/" + sanitize(key)

	// 确保根节点和锁的父节点存在
	for _, path := range []string{lockRoot, lockPath} {
		if exists, _, err := l.conn.Exists(path); err == nil && !exists {
			if _, err := l.conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
				return nil, err
			}
		}
	}

	// 1. 在锁路径下创建一个临时顺序节点
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(lockPath+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(wait)
	for {
		// 2. 获取锁路径下的所有子节点并排序
		children, _, err := l.conn.Children(lockPath)
		if err != nil {
			l.abandon(nodePath)
			return nil, err
		}
		sort.Strings(children)

		// 3. 判断自己是否是最小的节点
		myNodeName := strings.TrimPrefix(nodePath, lockPath+"/")
		if myNodeName == children[0] {
			return &zkHandle{conn: l.conn, key: key, node: nodePath}, nil
		}

		// 4. 不是最小节点，监听前一个节点
		prevNodeIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevNodeIndex = i - 1
				break
			}
		}
		if prevNodeIndex < 0 {
			l.abandon(nodePath)
			return nil, errors.New("cannot find own node among lock children")
		}
		prevNodePath := lockPath + "/" + children[prevNodeIndex]

		_, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			// 前一个节点在检查瞬间刚好被删除，重试循环
			if err == zk.ErrNoNode {
				continue
			}
			l.abandon(nodePath)
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			l.abandon(nodePath)
			return nil, &apperr.LockTimeoutError{Key: key, Wait: wait}
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(remaining):
			l.abandon(nodePath)
			return nil, &apperr.LockTimeoutError{Key: key, Wait: wait}
		case <-ctx.Done():
			l.abandon(nodePath)
			return nil, ctx.Err()
		}
	}
}

// abandon 清理排队失败时残留的顺序节点。
func (l *ZkLocker) abandon(node string) {
	_ = l.conn.Delete(node, -1)
}

// sanitize 把锁 key 里的路径分隔符替换掉，避免产生多级节点。
func sanitize(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

type zkHandle struct {
	conn *zk.Conn
	key  string
	node string
}

func (h *zkHandle) Key() string { return h.key }

func (h *zkHandle) Release(ctx context.Context) error {
	if h.node == "" {
		return nil
	}
	err := h.conn.Delete(h.node, -1)
	if err != nil && err != zk.ErrNoNode {
		return err
	}
	h.node = ""
	return nil
}
