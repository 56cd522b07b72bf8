package pipeline

import (
	"testing"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_LayerPreview(t *testing.T) {
	t.Run("有効化で表示用ターゲットが得られビューポートサイズになるのだ", func(t *testing.T) {
		h := newHarness(t)

		changed := make(chan *render.Target, 1)
		h.pipe.SetEvents(Events{
			OnPreviewChanged: func(target *render.Target) { changed <- target },
		})

		target, err := h.pipe.EnableLayerPreview(domain.LayerFinalColor, domain.Size{})
		require.NoError(t, err)
		require.NotNil(t, target)
		assert.Equal(t, h.vp.Size(), target.Resolution())
		assert.Same(t, target, recv(t, changed))

		require.Len(t, h.world.Spawned(), 1)
	})

	t.Run("二重有効化は同じターゲットを返すのだ", func(t *testing.T) {
		h := newHarness(t)

		first, err := h.pipe.EnableLayerPreview(domain.LayerDepth, domain.Size{X: 16, Y: 16})
		require.NoError(t, err)
		second, err := h.pipe.EnableLayerPreview(domain.LayerDepth, domain.Size{X: 32, Y: 32})
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Len(t, h.world.Spawned(), 1)
	})

	t.Run("カメラ移動でミラーリング更新と再キャプチャが走るのだ", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.pipe.EnableLayerPreview(domain.LayerFinalColor, domain.Size{})
		require.NoError(t, err)

		moved := make(chan domain.CameraInfo, 1)
		h.pipe.SetEvents(Events{
			OnCameraMoved: func(info domain.CameraInfo) { moved <- info },
		})

		src := h.world.Spawned()[0]
		before := len(src.CapturedPasses())

		h.pipe.NotifyCameraMoved(domain.CameraInfo{Location: domain.Vec3{X: 100}})

		info := recv(t, moved)
		assert.Equal(t, float64(100), info.Location.X)
		assert.Greater(t, len(src.CapturedPasses()), before)
	})

	t.Run("無効化でプレビューカメラが破棄されるのだ", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.pipe.EnableLayerPreview(domain.LayerNormals, domain.Size{X: 8, Y: 8})
		require.NoError(t, err)

		changed := make(chan *render.Target, 1)
		h.pipe.SetEvents(Events{
			OnPreviewChanged: func(target *render.Target) { changed <- target },
		})

		h.pipe.DisableLayerPreview()

		assert.Nil(t, recv(t, changed))
		assert.True(t, h.world.Spawned()[0].Destroyed())

		// 二重無効化は no-op
		h.pipe.DisableLayerPreview()
	})

	t.Run("ビューポートが無い場合は有効化に失敗するのだ", func(t *testing.T) {
		h := newHarness(t)
		h.world.clients = nil

		_, err := h.pipe.EnableLayerPreview(domain.LayerFinalColor, domain.Size{})
		assert.Error(t, err)
	})
}
