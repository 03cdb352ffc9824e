// Package dynarmic is a dynamic recompiler core that executes ARM guest
// code on x86-64 hosts: guest instructions are translated into an SSA-form
// intermediate representation and compiled to native code with ARM-exact
// floating-point semantics.
//
// The implementation lives under internal/ while the public embedding API
// (the dispatcher, block cache and guest-thread surface) is still taking
// shape:
//
//   - internal/frontend/thumb decodes and translates Thumb-16 code,
//   - internal/ir holds the micro-operation representation and its builder,
//   - internal/ir/opt folds constant reads from read-only guest memory,
//   - internal/backend/x64 compiles the vector floating-point operations,
//     bridging ARM NaN, signed-zero and fixed-point semantics onto SSE/AVX,
//   - internal/asm wraps instruction encoding and executable memory,
//   - internal/fp implements the bit-exact scalar floating-point helpers.
package dynarmic
