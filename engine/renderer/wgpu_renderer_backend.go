package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

var clearColor = wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0}

// Rasterizer bias of the shadow pipeline, on top of the per-cascade bias the
// lit shader applies.
const (
	shadowDepthBias           int32   = 2
	shadowDepthBiasSlopeScale float32 = 2
)

// shadowPassSize is one view-projection matrix.
const shadowPassSize = uint64(unsafe.Sizeof(mgl32.Mat4{}))

// wgpuMesh holds the GPU objects of one uploaded mesh.
type wgpuMesh struct {
	label        string
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	vertexCount  int
	indexCount   int

	objectBuffer    *wgpu.Buffer
	objectBindGroup *wgpu.BindGroup
}

func (m *wgpuMesh) Label() string    { return m.label }
func (m *wgpuMesh) VertexCount() int { return m.vertexCount }
func (m *wgpuMesh) IndexCount() int  { return m.indexCount }

func (m *wgpuMesh) Release() {
	if m.objectBindGroup != nil {
		m.objectBindGroup.Release()
	}
	for _, buf := range []*wgpu.Buffer{m.vertexBuffer, m.indexBuffer, m.objectBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	*m = wgpuMesh{label: m.label}
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeFifo (VSync)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass

	// Lit pipeline and its layouts. Group 0 holds the frame uniforms and the
	// shadow maps, group 1 the per-mesh object uniform.
	pipeline       *wgpu.RenderPipeline
	frameLayout    *wgpu.BindGroupLayout
	objectLayout   *wgpu.BindGroupLayout
	cameraBuffer   *wgpu.Buffer
	lightBuffer    *wgpu.Buffer
	frameBindGroup *wgpu.BindGroup
	pipelineFormat wgpu.TextureFormat

	// Shadow maps. Every layer has its own render view and every pass its own
	// view-projection uniform, so all passes can be encoded into one command
	// buffer.
	shadowPipeline   *wgpu.RenderPipeline
	shadowPassLayout *wgpu.BindGroupLayout
	shadowSampler    *wgpu.Sampler
	sunShadow        shadowMap
	pointShadow      shadowMap
	shadowPasses     []shadowPassTarget

	// Draws recorded between BeginFrame and EndFrame.
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameShadows []light.ShadowPass
	mainDraws    []*wgpuMesh
	casters      []*wgpuMesh
}

// shadowMap is a layered depth texture, viewed whole for sampling and one layer
// at a time for rendering.
type shadowMap struct {
	texture    *wgpu.Texture
	sampleView *wgpu.TextureView
	layerViews []*wgpu.TextureView
}

func (m *shadowMap) release() {
	for _, v := range m.layerViews {
		v.Release()
	}
	if m.sampleView != nil {
		m.sampleView.Release()
	}
	if m.texture != nil {
		m.texture.Release()
	}
	*m = shadowMap{}
}

// shadowPassTarget is the uniform and bind group one shadow pass renders with.
type shadowPassTarget struct {
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) *wgpuRendererBackendImpl {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if err := b.createFrameResources(); err != nil {
		panic(err)
	}
	return b
}

// createFrameResources creates the bind group layouts and the frame uniform
// buffers shared by every draw.
func (b *wgpuRendererBackendImpl) createFrameResources() error {
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	cameraSize := uint64(unsafe.Sizeof(camera.GPUCameraUniform{}))
	lightSize := uint64(unsafe.Sizeof(light.GPULightBuffer{}))
	objectSize := uint64(unsafe.Sizeof(GPUObjectUniform{}))

	if err := b.createShadowResources(); err != nil {
		return err
	}

	var err error
	b.frameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: cameraSize},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: lightSize},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeDepth,
					ViewDimension: wgpu.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeDepth,
					ViewDimension: wgpu.TextureViewDimensionCube,
				},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create frame bind group layout: %w", err)
	}

	b.objectLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Object Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: objectSize},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create object bind group layout: %w", err)
	}

	b.cameraBuffer, err = b.createUniformBuffer("Camera Buffer", cameraSize)
	if err != nil {
		return err
	}
	b.lightBuffer, err = b.createUniformBuffer("Light Buffer", lightSize)
	if err != nil {
		return err
	}

	b.frameBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: b.frameLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.cameraBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: b.lightBuffer, Size: wgpu.WholeSize},
			{Binding: 2, TextureView: b.sunShadow.sampleView},
			{Binding: 3, TextureView: b.pointShadow.sampleView},
			{Binding: 4, Sampler: b.shadowSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create frame bind group: %w", err)
	}
	return b.createShadowPipeline()
}

// createShadowResources creates the shadow map textures, the comparison
// sampler and one uniform per possible shadow pass.
func (b *wgpuRendererBackendImpl) createShadowResources() error {
	var err error
	b.sunShadow, err = b.createShadowMap("Sun Shadow Map", light.ShadowMapResolution, light.MaxCascades, wgpu.TextureViewDimension2DArray)
	if err != nil {
		return err
	}
	b.pointShadow, err = b.createShadowMap("Point Shadow Map", light.PointShadowResolution, 6, wgpu.TextureViewDimensionCube)
	if err != nil {
		return err
	}

	b.shadowSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create comparison sampler: %w", err)
	}

	b.shadowPassLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Shadow Pass Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: shadowPassSize},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow pass bind group layout: %w", err)
	}

	for i := range light.MaxCascades + 6 {
		label := fmt.Sprintf("Shadow Pass %d", i)
		buf, err := b.createUniformBuffer(label+" Buffer", shadowPassSize)
		if err != nil {
			return err
		}
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  label + " Bind Group",
			Layout: b.shadowPassLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: buf, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			buf.Release()
			return fmt.Errorf("failed to create %s bind group: %w", label, err)
		}
		b.shadowPasses = append(b.shadowPasses, shadowPassTarget{buffer: buf, bindGroup: bg})
	}
	return nil
}

// createShadowMap creates a square Depth32Float texture with the given number
// of layers.
func (b *wgpuRendererBackendImpl) createShadowMap(label string, resolution, layers int, dim wgpu.TextureViewDimension) (shadowMap, error) {
	var m shadowMap
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(resolution),
			Height:             uint32(resolution),
			DepthOrArrayLayers: uint32(layers),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return m, fmt.Errorf("failed to create %s: %w", label, err)
	}
	m.texture = tex

	m.sampleView, err = tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label + " Sample View",
		Format:          wgpu.TextureFormatDepth32Float,
		Dimension:       dim,
		MipLevelCount:   1,
		ArrayLayerCount: uint32(layers),
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		m.release()
		return m, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	for layer := range layers {
		view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s Layer %d", label, layer),
			Format:          wgpu.TextureFormatDepth32Float,
			Dimension:       wgpu.TextureViewDimension2D,
			MipLevelCount:   1,
			BaseArrayLayer:  uint32(layer),
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			m.release()
			return m, fmt.Errorf("failed to create %s layer %d view: %w", label, layer, err)
		}
		m.layerViews = append(m.layerViews, view)
	}
	return m, nil
}

// createShadowPipeline builds the depth-only pipeline shared by every shadow
// pass. Culling is off: the ground is a single-sided plane and the cube face
// views flip winding.
func (b *wgpuRendererBackendImpl) createShadowPipeline() error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "shadow.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: shadowShaderSource,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow shader: %w", err)
	}
	defer module.Release()

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Shadow Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.shadowPassLayout, b.objectLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow pipeline layout: %w", err)
	}
	defer layout.Release()

	b.shadowPipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Shadow Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: model.GPUVertexSize,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		// depth only
		Fragment: nil,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled:   true,
			DepthCompare:        wgpu.CompareFunctionLess,
			DepthBias:           shadowDepthBias,
			DepthBiasSlopeScale: shadowDepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow pipeline: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) createUniformBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	return buf, nil
}

// createPipeline builds the lit render pipeline for the current surface format.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) createPipeline() error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "lit.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: litShaderSource,
		},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Lit Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, b.objectLayout},
	})
	if err != nil {
		return err
	}
	defer layout.Release()

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Lit Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: model.GPUVertexSize,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    *b.surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	if b.pipeline != nil {
		b.pipeline.Release()
	}
	b.pipeline = created
	b.pipelineFormat = *b.surfaceFormat
	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.pipeline == nil || b.pipelineFormat != *b.surfaceFormat {
		if err := b.createPipeline(); err != nil {
			panic(fmt.Errorf("failed to create lit pipeline: %w", err))
		}
	}

	b.releaseTargets()
	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result is
		// written to the swapchain view as the ResolveTarget.
		tex, view, err := b.createTarget("MSAA Texture", width, height, count, *b.surfaceFormat)
		if err != nil {
			panic(err)
		}
		b.msaaTexture, b.msaaTextureView = tex, view
	}

	// Depth texture sample count must match the color attachment.
	tex, view, err := b.createTarget("Depth Texture", width, height, count, wgpu.TextureFormatDepth24Plus)
	if err != nil {
		panic(err)
	}
	b.depthTexture, b.depthTextureView = tex, view

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaTextureView, // nil when MSAA is off; set in BeginFrame
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

// createTarget creates a render attachment texture and its view.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) createTarget(label string, width, height int, samples uint32, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	return tex, view, nil
}

// releaseTargets frees the size-dependent attachments.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseTargets() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTexture.Release()
		b.msaaTextureView, b.msaaTexture = nil, nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) CreateMesh(label string, vertexData []byte, vertexCount int, indexData []byte, indexCount int) (gpuMesh, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := &wgpuMesh{label: label, vertexCount: vertexCount, indexCount: indexCount}
	fail := func(err error) (gpuMesh, error) {
		m.Release()
		return nil, err
	}

	var err error
	m.vertexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fail(err)
	}
	b.queue.WriteBuffer(m.vertexBuffer, 0, vertexData)

	m.indexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fail(err)
	}
	b.queue.WriteBuffer(m.indexBuffer, 0, indexData)

	m.objectBuffer, err = b.createUniformBuffer(label+" Object Buffer", uint64(unsafe.Sizeof(GPUObjectUniform{})))
	if err != nil {
		return fail(err)
	}
	m.objectBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Object Bind Group",
		Layout: b.objectLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.objectBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fail(err)
	}
	return m, nil
}

func (b *wgpuRendererBackendImpl) WriteVertices(mesh gpuMesh, vertexData []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := mesh.(*wgpuMesh)
	if m.vertexBuffer == nil {
		return
	}
	b.queue.WriteBuffer(m.vertexBuffer, 0, vertexData)
}

func (b *wgpuRendererBackendImpl) BeginFrame(cameraData, lightData []byte, shadowPasses []light.ShadowPass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, acquiring another
	// fails with "Surface image is already acquired".
	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}
	if len(shadowPasses) > len(b.shadowPasses) {
		return fmt.Errorf("%d shadow passes requested, %d available", len(shadowPasses), len(b.shadowPasses))
	}

	b.queue.WriteBuffer(b.cameraBuffer, 0, cameraData)
	b.queue.WriteBuffer(b.lightBuffer, 0, lightData)
	for i, p := range shadowPasses {
		b.queue.WriteBuffer(b.shadowPasses[i].buffer, 0, common.StructToBytes(&p.ViewProj))
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameShadows = append(b.frameShadows[:0], shadowPasses...)
	b.mainDraws = b.mainDraws[:0]
	b.casters = b.casters[:0]
	return nil
}

func (b *wgpuRendererBackendImpl) Draw(mesh gpuMesh, objectData []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := mesh.(*wgpuMesh)
	if b.frameSurface == nil || m.vertexBuffer == nil {
		return
	}
	b.queue.WriteBuffer(m.objectBuffer, 0, objectData)
	b.mainDraws = append(b.mainDraws, m)
	b.casters = append(b.casters, m)
}

func (b *wgpuRendererBackendImpl) DrawShadowCaster(mesh gpuMesh, objectData []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := mesh.(*wgpuMesh)
	if b.frameSurface == nil || m.vertexBuffer == nil {
		return
	}
	b.queue.WriteBuffer(m.objectBuffer, 0, objectData)
	b.casters = append(b.casters, m)
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return nil
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		b.releaseFrameSurface()
		return err
	}

	for i, p := range b.frameShadows {
		b.encodeShadowPass(encoder, p, b.shadowPasses[i].bindGroup)
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = b.frameView
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = b.frameView
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, b.frameBindGroup, nil)
	for _, m := range b.mainDraws {
		drawMesh(pass, m)
	}
	pass.End()
	pass.Release()

	commandBuffer, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		b.releaseFrameSurface()
		return err
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	b.releaseFrameSurface()
	return nil
}

// encodeShadowPass renders every recorded caster into one shadow map layer.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) encodeShadowPass(encoder *wgpu.CommandEncoder, p light.ShadowPass, bindGroup *wgpu.BindGroup) {
	target := &b.sunShadow
	if p.Map == light.ShadowMapPoint {
		target = &b.pointShadow
	}
	if p.Layer < 0 || p.Layer >= len(target.layerViews) {
		return
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Shadow Pass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            target.layerViews[p.Layer],
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(b.shadowPipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	for _, m := range b.casters {
		drawMesh(pass, m)
	}
	pass.End()
	pass.Release()
}

// drawMesh skips meshes released since they were recorded.
func drawMesh(pass *wgpu.RenderPassEncoder, m *wgpuMesh) {
	if m.vertexBuffer == nil {
		return
	}
	pass.SetBindGroup(1, m.objectBindGroup, nil)
	pass.SetVertexBuffer(0, m.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(m.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(m.indexCount), 1, 0, 0, 0)
}

// releaseFrameSurface drops the swapchain texture acquired by BeginFrame.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrameSurface()
	b.releaseTargets()
	for _, p := range []*wgpu.RenderPipeline{b.pipeline, b.shadowPipeline} {
		if p != nil {
			p.Release()
		}
	}
	b.pipeline, b.shadowPipeline = nil, nil
	for _, t := range b.shadowPasses {
		t.bindGroup.Release()
		t.buffer.Release()
	}
	b.shadowPasses = nil
	b.sunShadow.release()
	b.pointShadow.release()
	if b.shadowSampler != nil {
		b.shadowSampler.Release()
		b.shadowSampler = nil
	}
	if b.frameBindGroup != nil {
		b.frameBindGroup.Release()
		b.frameBindGroup = nil
	}
	for _, buf := range []*wgpu.Buffer{b.cameraBuffer, b.lightBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	b.cameraBuffer, b.lightBuffer = nil, nil
	for _, l := range []*wgpu.BindGroupLayout{b.frameLayout, b.objectLayout, b.shadowPassLayout} {
		if l != nil {
			l.Release()
		}
	}
	b.frameLayout, b.objectLayout, b.shadowPassLayout = nil, nil, nil
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.queue, b.device, b.adapter, b.surface, b.instance = nil, nil, nil, nil, nil
}
