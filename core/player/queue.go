package player

import "math/rand"

// BuildQueue 根据当前曲目列表构造遍历顺序，返回队列及起始下标。
//
// 非随机模式下队列就是 ids 本身，position 指向 anchorID（不在列表中
// 或为 0 时取 0）。随机模式下对 ids 做 Fisher-Yates 均匀洗牌；若
// anchorID 在列表中则强制置于队首，这样播放途中切换随机模式不会
// 跳离正在播放的曲目。
//
// 纯函数：不读写任何引擎状态，随机源由调用方注入。
func BuildQueue(ids []int64, shuffle bool, anchorID int64, rng *rand.Rand) ([]int64, int) {
	if !shuffle {
		queue := append([]int64(nil), ids...)
		if pos := indexOf(queue, anchorID); pos >= 0 {
			return queue, pos
		}
		return queue, 0
	}

	shuffled := shuffleIDs(ids, rng)
	if anchorID != 0 {
		if pos := indexOf(shuffled, anchorID); pos >= 0 {
			// 锚点提到队首，其余曲目保持洗牌后的相对顺序
			queue := make([]int64, 0, len(shuffled))
			queue = append(queue, anchorID)
			for _, id := range shuffled {
				if id != anchorID {
					queue = append(queue, id)
				}
			}
			return queue, 0
		}
	}

	return shuffled, 0
}

// shuffleIDs 返回 ids 的一个均匀随机排列，不修改入参
func shuffleIDs(ids []int64, rng *rand.Rand) []int64 {
	shuffled := append([]int64(nil), ids...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// indexOf 返回 id 在列表中的下标，不存在或 id 为 0 时返回 -1
func indexOf(ids []int64, id int64) int {
	if id == 0 {
		return -1
	}
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// idsEqual 逐元素比较两份曲目列表
func idsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
