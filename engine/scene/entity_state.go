package scene

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/game_object"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// primState is one drawable primitive of an entity's model, flattened out of the
// node hierarchy.
type primState struct {
	label    string
	node     int
	skin     int
	source   *model.Primitive
	material int

	verts  []model.GPUVertex
	center mgl32.Vec3
	radius float32

	handle renderer.MeshHandle
	dirty  bool
}

// entityState is the scene's render bookkeeping for one spawned entity.
type entityState struct {
	obj game_object.GameObject

	mdl      model.Model
	player   animator.AnimationPlayer
	restPose *model.Pose
	prims    []primState
	joints   [][]mgl32.Mat4
	posed    bool

	playerNotified bool
	warnedPlayer   bool
}

// bind syncs the state with the entity's current model and player, rebuilding
// the primitive list when the model changed.
//
// Parameters:
//   - r: the renderer owning the entity's meshes
//
// Returns:
//   - bool: true if the entity has a model to draw
func (st *entityState) bind(r renderer.Renderer) bool {
	mdl := st.obj.Model()
	if mdl != st.mdl {
		st.release(r)
		st.mdl = mdl
		if mdl != nil {
			st.flatten()
		}
	}
	if st.mdl == nil {
		return false
	}

	player := st.obj.AnimationPlayer()
	if player != nil && player.Model() != st.mdl {
		if !st.warnedPlayer {
			slog.Warn("animation player ignored, it animates a different model",
				slog.Uint64("id", st.obj.ID()), slog.String("model", st.mdl.Name()))
			st.warnedPlayer = true
		}
		player = nil
	}
	if player != st.player {
		st.player = player
		st.posed = false
	}
	return true
}

// flatten walks the default scene of the model and records every primitive.
func (st *entityState) flatten() {
	st.restPose = model.NewPose(st.mdl)
	st.joints = make([][]mgl32.Mat4, len(st.mdl.Skins()))
	st.posed = false

	nodeIDs, err := st.mdl.SceneNodes(st.mdl.DefaultScene())
	if err != nil {
		slog.Warn("model has no drawable scene", slog.String("model", st.mdl.Name()), slog.Any("error", err))
		return
	}
	nodes := st.mdl.Nodes()
	meshes := st.mdl.Meshes()
	for _, n := range nodeIDs {
		node := nodes[n]
		if node.Mesh < 0 || node.Mesh >= len(meshes) {
			continue
		}
		mesh := &meshes[node.Mesh]
		for i := range mesh.Primitives {
			prim := &mesh.Primitives[i]
			if len(prim.Vertices) == 0 || len(prim.Indices) == 0 {
				continue
			}
			skin := -1
			if prim.Skinned && node.Skin >= 0 && node.Skin < len(st.joints) {
				skin = node.Skin
			}
			st.prims = append(st.prims, primState{
				label:    fmt.Sprintf("%s/%s#%d", st.mdl.Name(), mesh.Name, i),
				node:     n,
				skin:     skin,
				source:   prim,
				material: prim.MaterialIndex,
			})
		}
	}
}

// needsPose reports whether the vertices must be recomputed this frame.
func (st *entityState) needsPose() bool {
	return !st.posed || st.player != nil
}

// pose advances the player and regenerates the model-space vertices and
// bounding sphere of every primitive. Runs on a compute worker.
//
// Parameters:
//   - dt: elapsed time in seconds
func (st *entityState) pose(dt float32) {
	pose := st.restPose
	if st.player != nil {
		st.player.Advance(dt)
		pose = st.player.Pose()
	}

	for skin := range st.joints {
		st.joints[skin] = pose.JointMatrices(skin, st.joints[skin])
	}
	for i := range st.prims {
		p := &st.prims[i]
		if p.skin >= 0 {
			p.verts = model.SkinPrimitive(st.joints[p.skin], p.source, p.verts)
		} else {
			p.verts = model.TransformPrimitive(pose.Global(p.node), p.source, p.verts)
		}
		p.center, p.radius = model.BoundingSphere(p.verts)
		p.dirty = true
	}
	st.posed = true
}

// upload sends every dirty primitive to the renderer.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - error: joined upload errors
func (st *entityState) upload(r renderer.Renderer) error {
	var errs []error
	for i := range st.prims {
		p := &st.prims[i]
		if !p.dirty {
			continue
		}
		p.dirty = false
		if p.handle == 0 {
			h, err := r.UploadMesh(p.label, p.verts, p.source.Indices)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			p.handle = h
			continue
		}
		if err := r.UpdateMeshVertices(p.handle, p.verts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// release frees the entity's meshes and forgets its primitives.
func (st *entityState) release(r renderer.Renderer) {
	for _, p := range st.prims {
		if p.handle != 0 {
			r.ReleaseMesh(p.handle)
		}
	}
	st.prims = nil
	st.joints = nil
	st.restPose = nil
	st.player = nil
	st.posed = false
}
