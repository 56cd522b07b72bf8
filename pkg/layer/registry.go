package layer

import (
	"fmt"
	"sync"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// registry は種別からプロセッサを生成するファクトリ表です。
// 組み込み種別は init で登録し、利用側は独自種別を追加できます。
var registry = struct {
	mu        sync.RWMutex
	factories map[domain.LayerKind]func() Processor
}{
	factories: make(map[domain.LayerKind]func() Processor),
}

// Register は種別に対応するファクトリを登録します。
// 既に登録済みの種別はエラーです。
func Register(kind domain.LayerKind, factory func() Processor) error {
	if factory == nil {
		return fmt.Errorf("factory is required")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.factories[kind]; ok {
		return fmt.Errorf("レイヤー種別 %q は登録済みです", kind)
	}
	registry.factories[kind] = factory
	return nil
}

// New は種別に対応するプロセッサを生成します。
func New(kind domain.LayerKind) (Processor, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[kind]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("レイヤー種別 %q は未登録です", kind)
	}
	return factory(), nil
}

func init() {
	// 組み込みプロセッサの自己登録。失敗は起こり得ない。
	_ = Register(domain.LayerFinalColor, func() Processor { return NewFinalColor() })
	_ = Register(domain.LayerDepth, func() Processor { return NewDepth(1, 0) })
	_ = Register(domain.LayerNormals, func() Processor { return NewNormals() })
}
