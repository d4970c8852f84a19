// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package client

import (
	"fmt"
	"unsafe"

	"github.com/gpuhud/hud/internal/vk"
)

// OverlayPushConsts mirrors the push-constant block the composite shaders
// read: the swapchain's destination extent, the imported frame's source
// extent, and a pixel offset, plus a transfer-function selector for the
// cache image's encoding (spec §4.3 "A single push-constant block carries
// destination extent, source extent, and pixel offset").
type OverlayPushConsts struct {
	DstExtent        [2]float32
	SrcExtent        [2]float32
	OffsetPx         [2]float32
	TransferFunction uint32
}

// transferFunction picks the cache-image decode the fragment shader applies
// before compositing. Full HDR/wide-gamut colorspace handling is out of
// scope; every swapchain format this module has seen in practice decodes
// linearly once sampled, so this always selects the identity transform.
func transferFunction(format vk.Format) uint32 {
	return 0
}

// OverlayPipeline is the fixed composite pipeline every SwapchainData
// lazily builds on its first present: a full-screen-triangle vertex shader
// and a nearest-sampling fragment shader, bound to exactly one
// combined-image-sampler descriptor (spec §4.3 "Composite pipeline").
type OverlayPipeline struct {
	dispatch Dispatch
	device   vk.Device

	vs, fs  vk.ShaderModule
	sampler vk.Sampler
	dsl     vk.DescriptorSetLayout
	dp      vk.DescriptorPool
	ds      vk.DescriptorSet
	pl      vk.PipelineLayout
	pipe    vk.Pipeline
}

// BuildOverlayPipeline creates every object OverlayPipeline owns, sized to
// extent, and grounded exactly on the original composite pass's
// fixed-function state (spec §4.3): triangle-list topology with no vertex
// buffers, fill/cull-none/CCW rasterization, single-sample, and standard
// straight alpha blending over whatever the application already presented.
// vertSPV/fragSPV are the compiled SPIR-V for the two shader stages; this
// module does not itself run a shader compiler (spec §9, same boundary as
// the layer manifest: "outside this module's Go surface").
func BuildOverlayPipeline(dispatch Dispatch, device vk.Device, renderPass vk.RenderPass, extent vk.Extent2D, vertSPV, fragSPV []byte) (*OverlayPipeline, error) {
	op := &OverlayPipeline{dispatch: dispatch, device: device}

	var err error
	if op.vs, err = createShaderModule(dispatch, device, vertSPV); err != nil {
		return nil, fmt.Errorf("client: vertex shader: %w", err)
	}
	if op.fs, err = createShaderModule(dispatch, device, fragSPV); err != nil {
		op.Destroy()
		return nil, fmt.Errorf("client: fragment shader: %w", err)
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    int32(vk.FilterNearest),
		MinFilter:    int32(vk.FilterNearest),
		AddressModeU: int32(vk.SamplerAddressModeClampToEdge),
		AddressModeV: int32(vk.SamplerAddressModeClampToEdge),
		AddressModeW: int32(vk.SamplerAddressModeClampToEdge),
		MaxLod:       0.25,
	}
	var result vk.Result
	result, err = dispatch.CreateSampler(device, &samplerInfo, &op.sampler)
	if err != nil || result.IsError() {
		op.Destroy()
		return nil, fmt.Errorf("vkCreateSampler: result=%v err=%w", result, err)
	}

	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFragment,
	}
	dslInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    &binding,
	}
	result, err = dispatch.CreateDescriptorSetLayout(device, &dslInfo, &op.dsl)
	if err != nil || result.IsError() {
		op.Destroy()
		return nil, fmt.Errorf("vkCreateDescriptorSetLayout: result=%v err=%w", result, err)
	}

	poolSize := vk.DescriptorPoolSize{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: 1}
	dpInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: 1,
		PPoolSizes:    &poolSize,
	}
	result, err = dispatch.CreateDescriptorPool(device, &dpInfo, &op.dp)
	if err != nil || result.IsError() {
		op.Destroy()
		return nil, fmt.Errorf("vkCreateDescriptorPool: result=%v err=%w", result, err)
	}

	dslCopy := op.dsl
	dsAllocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     op.dp,
		DescriptorSetCount: 1,
		PSetLayouts:        &dslCopy,
	}
	result, err = dispatch.AllocateDescriptorSets(device, &dsAllocInfo, &op.ds)
	if err != nil || result.IsError() {
		op.Destroy()
		return nil, fmt.Errorf("vkAllocateDescriptorSets: result=%v err=%w", result, err)
	}

	pushRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFragment,
		Size:       uint32(unsafe.Sizeof(OverlayPushConsts{})),
	}
	plInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            &dslCopy,
		PushConstantRangeCount: 1,
		PPushConstantRanges:    &pushRange,
	}
	result, err = dispatch.CreatePipelineLayout(device, &plInfo, &op.pl)
	if err != nil || result.IsError() {
		op.Destroy()
		return nil, fmt.Errorf("vkCreatePipelineLayout: result=%v err=%w", result, err)
	}

	entryPoint := append([]byte("main"), 0)
	stages := []vk.PipelineShaderStageCreateInfo{
		{SType: vk.StructureTypeGraphicsPipelineCreateInfo, Stage: vk.ShaderStageVertex, Module: op.vs, PName: unsafe.Pointer(&entryPoint[0])},
		{SType: vk.StructureTypeGraphicsPipelineCreateInfo, Stage: vk.ShaderStageFragment, Module: op.fs, PName: unsafe.Pointer(&entryPoint[0])},
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{Topology: int32(vk.PrimitiveTopologyTriangleList)}
	viewport := vk.Viewport{Width: float32(extent.Width), Height: float32(extent.Height), MaxDepth: 1}
	scissor := vk.Rect2D{Extent: extent}
	viewportState := vk.PipelineViewportStateCreateInfo{
		ViewportCount: 1, PViewports: &viewport,
		ScissorCount: 1, PScissors: &scissor,
	}
	rasterization := vk.PipelineRasterizationStateCreateInfo{
		PolygonMode: int32(vk.PolygonModeFill),
		CullMode:    uint32(vk.CullModeNone),
		FrontFace:   int32(vk.FrontFaceCounterClockwise),
		LineWidth:   1,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{RasterizationSamples: 1}
	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         1,
		SrcColorBlendFactor: int32(vk.BlendFactorSrcAlpha),
		DstColorBlendFactor: int32(vk.BlendFactorOneMinusSrcAlpha),
		ColorBlendOp:        int32(vk.BlendOpAdd),
		SrcAlphaBlendFactor: int32(vk.BlendFactorOne),
		DstAlphaBlendFactor: int32(vk.BlendFactorOneMinusSrcAlpha),
		AlphaBlendOp:        int32(vk.BlendOpAdd),
		ColorWriteMask:      uint32(vk.ColorComponentRGBA),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		AttachmentCount: 1,
		PAttachments:    &colorBlendAttachment,
	}

	pipeInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          2,
		PStages:             &stages[0],
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterization,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		Layout:              op.pl,
		RenderPass:          renderPass,
		BasePipelineIndex:   -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	result, err = dispatch.CreateGraphicsPipelines(device, []vk.GraphicsPipelineCreateInfo{pipeInfo}, pipelines)
	if err != nil || result.IsError() {
		op.Destroy()
		return nil, fmt.Errorf("vkCreateGraphicsPipelines: result=%v err=%w", result, err)
	}
	op.pipe = pipelines[0]

	return op, nil
}

// BindCacheView points the descriptor set's combined-image-sampler binding
// at view, which must be in SHADER_READ_ONLY_OPTIMAL layout (spec §4.3
// "writes the descriptor set's combined-image-sampler binding to the
// sampler plus the cache view").
func (op *OverlayPipeline) BindCacheView(view vk.ImageView) error {
	imageInfo := vk.DescriptorImageInfo{
		Sampler:     op.sampler,
		ImageView:   view,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          op.ds,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      &imageInfo,
	}
	return op.dispatch.UpdateDescriptorSets(op.device, []vk.WriteDescriptorSet{write})
}

// Layout returns the pipeline layout, needed to push OverlayPushConsts.
func (op *OverlayPipeline) Layout() vk.PipelineLayout { return op.pl }

// Pipeline returns the bindable graphics pipeline handle.
func (op *OverlayPipeline) Pipeline() vk.Pipeline { return op.pipe }

// DescriptorSet returns the one descriptor set this pipeline binds.
func (op *OverlayPipeline) DescriptorSet() vk.DescriptorSet { return op.ds }

// Destroy releases the descriptor pool (and with it the descriptor set),
// pipeline, pipeline layout, descriptor-set layout, sampler, vertex shader
// and fragment shader, in that order (the original destructor's
// dp→pipe→pl→dsl→sampler→vs→fs sequence).
func (op *OverlayPipeline) Destroy() {
	if op.dp != 0 {
		_ = op.dispatch.DestroyDescriptorPool(op.device, op.dp)
	}
	if op.pipe != 0 {
		_ = op.dispatch.DestroyPipeline(op.device, op.pipe)
	}
	if op.pl != 0 {
		_ = op.dispatch.DestroyPipelineLayout(op.device, op.pl)
	}
	if op.dsl != 0 {
		_ = op.dispatch.DestroyDescriptorSetLayout(op.device, op.dsl)
	}
	if op.sampler != 0 {
		_ = op.dispatch.DestroySampler(op.device, op.sampler)
	}
	if op.vs != 0 {
		_ = op.dispatch.DestroyShaderModule(op.device, op.vs)
	}
	if op.fs != 0 {
		_ = op.dispatch.DestroyShaderModule(op.device, op.fs)
	}
}

func createShaderModule(dispatch Dispatch, device vk.Device, spirv []byte) (vk.ShaderModule, error) {
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		return 0, fmt.Errorf("client: shader bytecode must be a non-empty multiple of 4 bytes, got %d", len(spirv))
	}
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uintptr(len(spirv)),
		PCode:    unsafe.Pointer(&spirv[0]),
	}
	var mod vk.ShaderModule
	result, err := dispatch.CreateShaderModule(device, &info, &mod)
	if err != nil {
		return 0, err
	}
	if result.IsError() {
		return 0, fmt.Errorf("vkCreateShaderModule: %d", result)
	}
	return mod, nil
}
