// Package mocks holds test doubles shared across packages:
//
//   - MockProvider: a scripted generation.Provider that counts calls and records the
//     last request.
//   - MockJWTService: an auth.TokenService driven by Fn fields or fixed results.
//   - TestifyMockCacheStore: a cache.Store built on testify's mock.Mock.
package mocks
